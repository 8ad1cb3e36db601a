// Package secret resolves credentials referenced from configuration values.
//
// Values are expanded against the environment first (see ExpandEnvStrict),
// then any "secretref:<provider>:<ref>" reference is replaced by the value
// the named provider returns:
//
//	datastore:
//	  uri: secretref:file:/run/secrets/datastore_uri
//	admin:
//	  jwt_secret: secretref:env:TASKSTORE_ADMIN_KEY
//
// FileProvider reads mounted secret files and EnvProvider reads variables.
package secret
