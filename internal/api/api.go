// Package api serves the ledger as a JSON REST API under /api.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mmynk/splitledger/internal/service"
)

type API struct {
	router *mux.Router
	ledger *service.Ledger
}

func New(ledger *service.Ledger) *API {
	api := &API{
		router: mux.NewRouter(),
		ledger: ledger,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	r := a.router.PathPrefix("/api").Subrouter()

	// Friends
	r.HandleFunc("/friends", a.handleAddFriend).Methods("POST")
	r.HandleFunc("/friends", a.handleListFriends).Methods("GET")
	r.HandleFunc("/friends/{id}", a.handleDeleteFriend).Methods("DELETE")

	// Expenses
	r.HandleFunc("/expenses", a.handleCreateExpense).Methods("POST")
	r.HandleFunc("/expenses", a.handleListExpenses).Methods("GET")
	r.HandleFunc("/split", a.handlePreviewSplit).Methods("POST")

	// Settlements
	r.HandleFunc("/settlements", a.handleRecordSettlement).Methods("POST")
	r.HandleFunc("/settlements", a.handleListSettlements).Methods("GET")

	// Balances
	r.HandleFunc("/balances", a.handleBalances).Methods("GET")
	r.HandleFunc("/balances/settle-up", a.handleSettleUp).Methods("GET")

	// Admin
	r.HandleFunc("/admin/reset", a.handleReset).Methods("POST")
}

// Handler returns the router wrapped in CORS handling. Any origin may call
// the API; credentials are never allowed with a wildcard origin.
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}
