package webhook

// Kind is a provider-neutral event name.
type Kind string

const (
	KindSubscriptionCreated    Kind = "subscription.created"
	KindSubscriptionUpdated    Kind = "subscription.updated"
	KindSubscriptionCanceled   Kind = "subscription.canceled"
	KindPaymentSucceeded       Kind = "subscription.payment_succeeded"
	KindPaymentFailed          Kind = "subscription.payment_failed"
	KindInvoicePaymentSucceeded Kind = "invoice.payment_succeeded"
	KindInvoicePaymentFailed   Kind = "invoice.payment_failed"

	// KindUnknown marks events the service does not act on.
	KindUnknown Kind = ""
)

// Kinds lists every kind the dispatcher must handle.
func Kinds() []Kind {
	return []Kind{
		KindSubscriptionCreated,
		KindSubscriptionUpdated,
		KindSubscriptionCanceled,
		KindPaymentSucceeded,
		KindPaymentFailed,
		KindInvoicePaymentSucceeded,
		KindInvoicePaymentFailed,
	}
}

// ParseKind returns the kind named by s, or KindUnknown.
func ParseKind(s string) Kind {
	for _, k := range Kinds() {
		if string(k) == s {
			return k
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	if k == KindUnknown {
		return "unknown"
	}
	return string(k)
}
