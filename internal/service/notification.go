package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"drivelink/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingPaid         NotificationType = "BOOKING_PAID"
	NotificationBookingCancelled    NotificationType = "BOOKING_CANCELLED"
	NotificationTripCompleted       NotificationType = "TRIP_COMPLETED"
	NotificationSettlementCompleted NotificationType = "SETTLEMENT_COMPLETED"
	NotificationPayoutSent          NotificationType = "PAYOUT_SENT"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // User or Driver ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. Delivery itself is an
// external collaborator; this service shapes the events and hands them off.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingPaid notifies both parties that payment cleared and the
// booking is confirmed.
func (s *NotificationService) NotifyBookingPaid(ctx context.Context, booking *domain.Booking) error {
	for _, recipientID := range []string{booking.ClientID, booking.DriverID} {
		notification := Notification{
			Type:        NotificationBookingPaid,
			RecipientID: recipientID,
			Title:       "Booking Confirmed",
			Message:     fmt.Sprintf("Payment received, booking %s is confirmed", booking.ID),
			Data: map[string]interface{}{
				"booking_id": booking.ID,
				"price":      booking.Price,
			},
			CreatedAt: time.Now(),
		}
		if err := s.send(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

// NotifyBookingCancelled notifies the client that the booking was cancelled.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: booking.ClientID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("Booking %s was cancelled", booking.ID),
		Data: map[string]interface{}{
			"booking_id":    booking.ID,
			"payment_state": string(booking.PaymentState),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripCompleted notifies both parties that the trip is completed.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, booking *domain.Booking) error {
	for _, recipientID := range []string{booking.ClientID, booking.DriverID} {
		notification := Notification{
			Type:        NotificationTripCompleted,
			RecipientID: recipientID,
			Title:       "Trip Completed",
			Message:     fmt.Sprintf("Trip for booking %s is completed", booking.ID),
			Data: map[string]interface{}{
				"booking_id": booking.ID,
			},
			CreatedAt: time.Now(),
		}
		if err := s.send(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

// NotifySettlementCompleted notifies the driver that their share was sent.
func (s *NotificationService) NotifySettlementCompleted(ctx context.Context, booking *domain.Booking, driverShare int64) error {
	notification := Notification{
		Type:        NotificationSettlementCompleted,
		RecipientID: booking.DriverID,
		Title:       "Trip Settled",
		Message:     fmt.Sprintf("Your earnings for booking %s are on the way", booking.ID),
		Data: map[string]interface{}{
			"booking_id":   booking.ID,
			"driver_share": driverShare,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPayoutSent notifies the driver that a withdrawal transfer was issued.
func (s *NotificationService) NotifyPayoutSent(ctx context.Context, payout *domain.Payout) error {
	notification := Notification{
		Type:        NotificationPayoutSent,
		RecipientID: payout.DriverID,
		Title:       "Payout Sent",
		Message:     fmt.Sprintf("Your withdrawal %s was sent", payout.TransferReference),
		Data: map[string]interface{}{
			"payout_id": payout.ID,
			"amount":    payout.Amount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// Real delivery (push, SMS, email) is a separate collaborator.
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
