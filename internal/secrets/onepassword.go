package secrets

import (
	"context"
	"fmt"
	"sync"

	"github.com/1Password/connect-sdk-go/connect"
)

// OnePasswordProvider resolves health credentials from a 1Password
// Connect vault item, caching the result for the process lifetime
// since the item rarely changes while the daemon runs.
type OnePasswordProvider struct {
	client  connect.Client
	vaultID string
	title   string

	mu     sync.Mutex
	cached bool
	user   string
	pass   string
	token  string
}

func NewOnePasswordProvider(cfg Config) (*OnePasswordProvider, error) {
	if cfg.OPConnectHost == "" || cfg.OPConnectToken == "" || cfg.OPVaultID == "" {
		return nil, fmt.Errorf("1password secrets backend requires OP_CONNECT_HOST, OP_CONNECT_TOKEN and OP_VAULT_ID")
	}
	client := connect.NewClientWithUserAgent(cfg.OPConnectHost, cfg.OPConnectToken, "pathwatch")
	return &OnePasswordProvider{
		client:  client,
		vaultID: cfg.OPVaultID,
		title:   cfg.OPItemTitle,
	}, nil
}

func (p *OnePasswordProvider) HealthCredentials(ctx context.Context) (user, pass, token string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached {
		return p.user, p.pass, p.token, nil
	}

	items, err := p.client.GetItemsByTitle(p.title, p.vaultID)
	if err != nil {
		return "", "", "", fmt.Errorf("looking up vault item %q: %w", p.title, err)
	}
	if len(items) == 0 {
		return "", "", "", fmt.Errorf("vault item %q not found", p.title)
	}

	item, err := p.client.GetItem(items[0].ID, p.vaultID)
	if err != nil {
		return "", "", "", fmt.Errorf("fetching vault item %q: %w", p.title, err)
	}

	for _, field := range item.Fields {
		switch field.Label {
		case "username":
			p.user = field.Value
		case "password":
			p.pass = field.Value
		case "token":
			p.token = field.Value
		}
	}
	p.cached = true
	return p.user, p.pass, p.token, nil
}
