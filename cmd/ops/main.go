// Command ops is the support-staff console. It drives the same idempotent
// service entry points the HTTP surface uses, so a manual settle or finalize
// can never diverge from the automated paths.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"drivelink/internal/app"
	"drivelink/internal/config"
	"drivelink/internal/gateway/paystack"
	internalRedis "drivelink/internal/redis"
	"drivelink/internal/repository/postgres"
	"drivelink/internal/service"
)

func main() {
	settleBooking := flag.String("settle", "", "settle the transaction for the given booking id")
	finalizeRef := flag.String("finalize", "", "verify and finalize the given gateway reference")
	sweep := flag.Bool("sweep", false, "run one auto-completion sweep cycle now")
	flag.Parse()

	if *settleBooking == "" && *finalizeRef == "" && !*sweep {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nil)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	reservationStore := internalRedis.NewReservationStore(redisClient)

	driverRepo := postgres.NewDriverRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	txRepo := postgres.NewTransactionRepository(db)
	disputeRepo := postgres.NewDisputeRepository(db)

	gateway := paystack.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL)
	notifier := service.NewNotificationService()
	recipients := service.NewDriverRecipientRegistry(driverRepo)
	commission := config.NewCommissionSource(cfg.Escrow.CommissionPercent)

	settlement := service.NewSettlementService(bookingRepo, txRepo, driverRepo, recipients, commission, gateway, notifier)
	completion := service.NewCompletionService(bookingRepo, driverRepo, disputeRepo, settlement, notifier)
	finalizer := service.NewPaymentFinalizer(bookingRepo, txRepo, reservationStore, notifier)

	switch {
	case *settleBooking != "":
		if err := settlement.Settle(ctx, *settleBooking); err != nil {
			log.Fatalf("settle %s: %v", *settleBooking, err)
		}
		fmt.Printf("booking %s settled (or already settled)\n", *settleBooking)

	case *finalizeRef != "":
		tx, err := gateway.VerifyTransaction(ctx, *finalizeRef)
		if err != nil {
			log.Fatalf("verify %s: %v", *finalizeRef, err)
		}
		if !tx.TransactionSuccessful() {
			log.Fatalf("reference %s is %q at the gateway, not finalizing", *finalizeRef, tx.Status)
		}

		result, err := finalizer.Finalize(ctx, tx.Reference, tx.Metadata["reservation_id"], tx.Amount)
		if err != nil {
			log.Fatalf("finalize %s: %v", *finalizeRef, err)
		}
		if result.AlreadyProcessed {
			fmt.Printf("reference %s already finalized: booking %s\n", *finalizeRef, result.BookingID)
		} else {
			fmt.Printf("reference %s finalized: booking %s\n", *finalizeRef, result.BookingID)
		}

	case *sweep:
		// No sweep lock here: an operator asking for a sweep gets one even
		// if a server instance swept recently.
		sweeper := service.NewSweeper(bookingRepo, disputeRepo, completion, nil, cfg.Escrow.SweepInterval, cfg.Escrow.ConfirmationGrace)
		if err := sweeper.Sweep(ctx); err != nil {
			log.Fatalf("sweep: %v", err)
		}
		fmt.Println("sweep complete")
	}
}
