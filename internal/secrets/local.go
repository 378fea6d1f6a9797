package secrets

import "context"

// LocalProvider reads health credentials directly from the
// environment-sourced Config, for single-host deployments that don't
// run a secrets manager.
type LocalProvider struct {
	user  string
	pass  string
	token string
}

func NewLocalProvider(cfg Config) *LocalProvider {
	return &LocalProvider{user: cfg.LocalUser, pass: cfg.LocalPass, token: cfg.LocalToken}
}

func (p *LocalProvider) HealthCredentials(ctx context.Context) (user, pass, token string, err error) {
	return p.user, p.pass, p.token, nil
}
