// Package secret resolves credentials referenced from configuration.
//
// A value of the form secretref:<provider>:<ref> is replaced by what the
// named provider returns for ref, e.g. secretref:env:REDIS_PASSWORD or
// secretref:file:/run/secrets/jwt_key. References may also appear inline
// ("Bearer secretref:env:TOKEN"). ${VAR} is expanded first and must be set.
package secret
