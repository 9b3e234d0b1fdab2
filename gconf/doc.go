/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration entity saved under a key derived
from the extension name. Configuration is loaded from the genesis file and can
later be patched by its owner with an update message.

Not being able to get a configuration value is a critical condition for the
application. Handlers refuse to process messages until the configuration is
present.
*/
package gconf
