package service

import (
	"github.com/dukerupert/loomworks/internal/domain"
)

// Checkout errors
var (
	ErrPaymentsNotConfigured = &domain.Error{Code: domain.EUNAVAILABLE, Message: "Payments are not configured"}
	ErrPaymentGateway        = &domain.Error{Code: domain.EPAYMENT, Message: "Could not start payment. Please try again."}
)

// Identity errors
var (
	ErrNotAuthenticated = &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Sign in to view your orders"}
)
