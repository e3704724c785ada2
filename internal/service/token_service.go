package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// OfferClaims bind a payment to one offer.
type OfferClaims struct {
	EntryID      string `json:"entry_id"`
	EventID      string `json:"event_id"`
	UserID       string `json:"user_id"`
	TicketTypeID string `json:"ticket_type_id,omitempty"`
	Quantity     int    `json:"quantity"`
	jwt.RegisteredClaims
}

type OfferTokenService interface {
	Issue(ctx context.Context, e *models.WaitingListEntry) (string, error)
	// Parse checks the signature and issuer only. Whether the offer is still
	// valid is decided against the stored entry.
	Parse(ctx context.Context, token string) (*OfferClaims, error)
}

type offerTokenService struct {
	conf config.JWTConfig
	clk  clock.Clock
	l    logger.Logger
}

func NewOfferTokenService(conf config.JWTConfig, clk clock.Clock, l logger.Logger) OfferTokenService {
	return &offerTokenService{
		conf: conf,
		clk:  clk,
		l:    l,
	}
}

func (s *offerTokenService) Issue(ctx context.Context, e *models.WaitingListEntry) (string, error) {
	if e.OfferExpiresAt == nil {
		return "", fmt.Errorf("entry %s has no offer", e.ID)
	}

	claims := OfferClaims{
		EntryID:      e.ID,
		EventID:      e.EventID,
		UserID:       e.UserID,
		TicketTypeID: e.TicketTypeID,
		Quantity:     e.Quantity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        e.ID,
			Subject:   e.UserID,
			Issuer:    s.conf.Issuer,
			IssuedAt:  jwt.NewNumericDate(s.clk.Now()),
			ExpiresAt: jwt.NewNumericDate(*e.OfferExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}

func (s *offerTokenService) Parse(ctx context.Context, token string) (*OfferClaims, error) {
	if token == "" {
		return nil, ErrTokenEmpty
	}

	claims := &OfferClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenUnexpectedSignature
		}
		return []byte(s.conf.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		s.l.Warnf(ctx, "Invalid offer token: %v", err)
		if errors.Is(err, ErrTokenUnexpectedSignature) {
			return nil, ErrTokenUnexpectedSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Issuer != s.conf.Issuer || claims.EntryID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
