/*
Package errors implements the error kinds shared by all delphi extensions.

Each kind is registered once with a unique ABCI code using Register. Handlers
never return a kind directly; they wrap it with context at the point of
failure:

	return errors.Wrapf(errors.ErrNotFound, "claim %d", index)

The first wrap attaches a stack trace. Use %+v to print it. Kinds are tested
with Is, which unwraps the error chain:

	if errors.ErrExpired.Is(err) { ... }

Field and AppendField annotate validation failures with the name of the
invalid attribute so that a client can point at it. ABCIInfo and Redact
translate an error into a transaction result code and a log message that is
safe to expose.
*/
package errors
