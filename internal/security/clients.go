package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"checkout.read","checkout.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"store-app":    {ID: "store-app", Secret: "store-app-secret", Perms: []string{"checkout.read", "checkout.write", "delivery.read", "delivery.write"}, Enabled: true},
	"gate-scanner": {ID: "gate-scanner", Secret: "gate-secret", Perms: []string{"checkout.read"}, Enabled: true},
	"owner-dash":   {ID: "owner-dash", Secret: "dash-secret", Perms: []string{"checkout.read", "delivery.read"}, Enabled: true},
}
