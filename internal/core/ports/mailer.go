package ports

import "context"

// Delivery is the per-recipient acknowledgment of a sent message.
type Delivery struct {
	Accepted []string
	Rejected []string
}

// AcceptedFor reports whether addr was accepted by the transport.
func (d Delivery) AcceptedFor(addr string) bool {
	for _, a := range d.Accepted {
		if a == addr {
			return true
		}
	}
	return false
}

// Mailer sends transactional email carrying raw tokens.
type Mailer interface {
	SendVerification(ctx context.Context, email, rawToken string) (Delivery, error)
	SendPasswordReset(ctx context.Context, email, rawToken string) (Delivery, error)
}
