package auth

// Decision is the outcome of guarding a protected route.
type Decision int

const (
	// DecisionLoading means the session is still being resolved.
	DecisionLoading Decision = iota
	DecisionAllow
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Guard decides access to a protected route.
func Guard(loggedIn, resolving bool) Decision {
	if resolving {
		return DecisionLoading
	}
	if loggedIn {
		return DecisionAllow
	}
	return DecisionRedirect
}

// NavItem is one entry of the top navigation.
type NavItem struct {
	Label     string
	Path      string
	Protected bool
}

var navItems = []NavItem{
	{Label: "Home", Path: "/"},
	{Label: "Dashboard", Path: "/dashboard", Protected: true},
	{Label: "Budget", Path: "/budget", Protected: true},
	{Label: "Goals", Path: "/goals", Protected: true},
	{Label: "Transactions", Path: "/transactions", Protected: true},
	{Label: "AI Advisor", Path: "/chat", Protected: true},
}

// Nav returns the navigation entries visible for the given login status.
func Nav(loggedIn bool) []NavItem {
	out := make([]NavItem, 0, len(navItems))
	for _, it := range navItems {
		if it.Protected && !loggedIn {
			continue
		}
		out = append(out, it)
	}
	return out
}
