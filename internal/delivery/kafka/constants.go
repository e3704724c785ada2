package kafka

const (
	TopicWaitlistJoined   = "reservation.waitlist_joined"
	TopicOfferGranted     = "reservation.offer_granted"
	TopicOfferExpired     = "reservation.offer_expired"
	TopicTicketsPurchased = "reservation.tickets_purchased"
	TopicTicketsCancelled = "reservation.tickets_cancelled"

	TopicPaymentConfirmed = "payment.confirmed"
	TopicEventCancelled   = "event.cancelled"
)
