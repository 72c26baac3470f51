package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"parkease/internal/api"
	"parkease/internal/auth"
	"parkease/internal/repository"
	"parkease/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	store := repository.NewStore(db)

	sender := service.NewSenderService(store.Users)
	bookingSvc := service.NewBookingService(store.Ledger, store.Bookings, sender)
	parkingSvc := service.NewParkingService(store.Spaces)
	userSvc := service.NewUserService(store.Users)
	jobSvc := service.NewJobService(store.Jobs)

	bookingHandler := api.NewBookingHandler(bookingSvc)
	parkingHandler := api.NewParkingHandler(parkingSvc)
	userHandler := api.NewUserHandler(userSvc)

	c := cron.New()
	c.AddFunc("@every 5m", func() {
		if err := jobSvc.CompleteExpiredBookings(context.Background()); err != nil {
			log.Printf("Error completing expired bookings: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(auth.Middleware(store.Users))

	// Users
	v1.HandleFunc("/users", userHandler.RegisterUser).Methods("POST")
	v1.HandleFunc("/users/me", userHandler.GetMe).Methods("GET")
	v1.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT")
	v1.HandleFunc("/users/me", userHandler.DeleteMe).Methods("DELETE")

	// Parking spaces
	v1.HandleFunc("/parking", parkingHandler.ListSpaces).Methods("GET")
	v1.HandleFunc("/parking/search", parkingHandler.SearchSpaces).Methods("GET")
	v1.HandleFunc("/parking/mine", parkingHandler.ListOwnSpaces).Methods("GET")
	v1.HandleFunc("/parking", parkingHandler.CreateSpace).Methods("POST")
	v1.HandleFunc("/parking/{id}", parkingHandler.GetSpace).Methods("GET")
	v1.HandleFunc("/parking/{id}", parkingHandler.UpdateSpace).Methods("PUT")
	v1.HandleFunc("/parking/{id}", parkingHandler.DeleteSpace).Methods("DELETE")

	// Bookings
	v1.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods("POST")
	v1.HandleFunc("/bookings", bookingHandler.ListUserBookings).Methods("GET")
	v1.HandleFunc("/bookings/owner", bookingHandler.ListOwnerBookings).Methods("GET")
	v1.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	v1.HandleFunc("/bookings/{id}/end", bookingHandler.EndBooking).Methods("POST")
	v1.HandleFunc("/bookings/{id}/cancel", bookingHandler.CancelBooking).Methods("POST")
	v1.HandleFunc("/bookings/{id}/owner-cancel", bookingHandler.OwnerCancelBooking).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, cors(r)))
}
