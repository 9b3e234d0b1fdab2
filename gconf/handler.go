package gconf

import (
	"reflect"

	"github.com/iov-one/delphi"
	"github.com/iov-one/delphi/errors"
	"github.com/iov-one/delphi/x"
)

// OwnedConfig is a configuration that only its owner may change.
type OwnedConfig interface {
	Configuration
	GetOwner() delphi.Address
}

// UpdateHandler patches a configuration with the Patch field of a message.
// Patch must be a pointer of the configuration type. Only the non zero
// fields of the patch are applied.
type UpdateHandler struct {
	pkg    string
	config OwnedConfig
	auth   x.Authenticator
}

var _ delphi.Handler = UpdateHandler{}

// NewUpdateConfigurationHandler returns the handler of the configuration
// of pkg. config is the instance the current configuration is loaded into.
// Updates must be signed by the owner, so the configuration can only be
// created at genesis.
func NewUpdateConfigurationHandler(pkg string, config OwnedConfig, auth x.Authenticator) UpdateHandler {
	return UpdateHandler{pkg: pkg, config: config, auth: auth}
}

func (h UpdateHandler) Check(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.CheckResult, error) {
	if err := h.update(ctx, db, tx); err != nil {
		return nil, err
	}
	return &delphi.CheckResult{}, nil
}

func (h UpdateHandler) Deliver(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) (*delphi.DeliverResult, error) {
	if err := h.update(ctx, db, tx); err != nil {
		return nil, err
	}
	delphi.GetLogger(ctx).Info("configuration updated", "package", h.pkg)
	return &delphi.DeliverResult{}, nil
}

func (h UpdateHandler) update(ctx delphi.Context, db delphi.KVStore, tx delphi.Tx) error {
	if err := Load(db, h.pkg, h.config); err != nil {
		return errors.Wrap(err, "load current configuration")
	}
	owner := h.config.GetOwner()
	if owner == nil {
		return errors.Wrap(errors.ErrUnauthorized, "configuration has no owner")
	}
	if !h.auth.HasAddress(ctx, owner) {
		return errors.Wrap(errors.ErrUnauthorized, "owner did not sign transaction")
	}

	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	p, err := patchOf(msg)
	if err != nil {
		return err
	}
	if reflect.TypeOf(p) != reflect.TypeOf(h.config) {
		return errors.Wrapf(errors.ErrMsg, "patch %T does not match %T", p, h.config)
	}
	applyPatch(reflect.ValueOf(h.config).Elem(), reflect.ValueOf(p).Elem())
	return errors.Wrap(Save(db, h.pkg, h.config), "cannot save updated config")
}

// patchOf returns the Patch field of msg.
func patchOf(msg delphi.Msg) (interface{}, error) {
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "invalid message container value: %T", msg)
	}
	f := v.Elem().FieldByName("Patch")
	switch {
	case !f.IsValid() || f.Kind() != reflect.Ptr:
		return nil, errors.Wrap(errors.ErrInput, `"Patch" field is missing`)
	case f.IsNil():
		return nil, errors.Wrap(errors.ErrState, `"Patch" field is required`)
	}
	return f.Interface(), nil
}

// applyPatch copies every non zero field of patch into dst.
func applyPatch(dst, patch reflect.Value) {
	for i := 0; i < dst.NumField(); i++ {
		f := patch.Field(i)
		if reflect.DeepEqual(f.Interface(), reflect.Zero(f.Type()).Interface()) {
			continue
		}
		dst.Field(i).Set(f)
	}
}
