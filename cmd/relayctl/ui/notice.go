package ui

// NoticeKind maps a failure (or success) to its visual treatment.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice is a transient, dismissible operator message. Every error kind the
// gateway client can produce surfaces through one of these; none are
// silently swallowed.
type Notice struct {
	Kind NoticeKind
	Text string
	Seq  int // distinguishes notices so an expiry tick cannot clear a newer one
}

// Render formats the notice with the style matching its kind.
func (n Notice) Render(s Styles) string {
	if n.Text == "" {
		return ""
	}
	switch n.Kind {
	case NoticeSuccess:
		return s.Success.Render("✓ " + n.Text)
	case NoticeWarning:
		return s.Warning.Render("! " + n.Text)
	case NoticeError:
		return s.Error.Render("✗ " + n.Text)
	default:
		return s.Info.Render("· " + n.Text)
	}
}
