package ticketingv1

import (
	"os"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rpcPattern     = regexp.MustCompile(`rpc (\w+)\((\w+)\) returns \((\w+)\)`)
	messagePattern = regexp.MustCompile(`message (\w+) \{([^}]*)\}`)
	fieldPattern   = regexp.MustCompile(`(?m)^\s*(?:repeated\s+)?\w+\s+(\w+)\s*=\s*\d+;`)
)

var contractMessages = map[string]any{
	"WaitingListEntry":                   WaitingListEntry{},
	"Ticket":                             Ticket{},
	"Event":                              Event{},
	"TicketType":                         TicketType{},
	"TicketTypeAvailability":             TicketTypeAvailability{},
	"TicketTypeInput":                    TicketTypeInput{},
	"JoinWaitingListRequest":             JoinWaitingListRequest{},
	"JoinWaitingListResponse":            JoinWaitingListResponse{},
	"PurchaseRequest":                    PurchaseRequest{},
	"PurchaseResponse":                   PurchaseResponse{},
	"GetAvailabilityRequest":             GetAvailabilityRequest{},
	"GetAvailabilityResponse":            GetAvailabilityResponse{},
	"GetQueuePositionRequest":            GetQueuePositionRequest{},
	"GetQueuePositionResponse":           GetQueuePositionResponse{},
	"GetUserTicketsRequest":              GetUserTicketsRequest{},
	"GetUserTicketsResponse":             GetUserTicketsResponse{},
	"CreateEventRequest":                 CreateEventRequest{},
	"CreateEventResponse":                CreateEventResponse{},
	"CancelEventRequest":                 CancelEventRequest{},
	"CancelEventResponse":                CancelEventResponse{},
	"CleanupExpiredReservationsRequest":  CleanupExpiredReservationsRequest{},
	"CleanupExpiredReservationsResponse": CleanupExpiredReservationsResponse{},
	"ProcessWaitlistRequest":             ProcessWaitlistRequest{},
	"ProcessWaitlistResponse":            ProcessWaitlistResponse{},
}

func readContract(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("ticketing.proto")
	require.NoError(t, err)
	return string(b)
}

func jsonKeys(v any) []string {
	rt := reflect.TypeOf(v)
	keys := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		name, _, _ := strings.Cut(rt.Field(i).Tag.Get("json"), ",")
		keys = append(keys, name)
	}
	return keys
}

func TestContract_ServiceMethods(t *testing.T) {
	src := readContract(t)

	var rpcs []string
	for _, m := range rpcPattern.FindAllStringSubmatch(src, -1) {
		rpcs = append(rpcs, m[1])
		assert.Equal(t, m[1]+"Request", m[2])
		assert.Equal(t, m[1]+"Response", m[3])
	}

	var methods []string
	for _, m := range TicketingService_ServiceDesc.Methods {
		methods = append(methods, m.MethodName)
	}
	assert.Equal(t, rpcs, methods)
	assert.Contains(t, src, "package reservation.v1;")
	assert.Equal(t, "reservation.v1.TicketingService", TicketingService_ServiceDesc.ServiceName)
}

func TestContract_MessageFields(t *testing.T) {
	src := readContract(t)

	seen := make(map[string]bool)
	for _, m := range messagePattern.FindAllStringSubmatch(src, -1) {
		name := m[1]
		goType, ok := contractMessages[name]
		if !assert.True(t, ok, "message %s has no Go type", name) {
			continue
		}
		seen[name] = true

		var fields []string
		for _, f := range fieldPattern.FindAllStringSubmatch(m[2], -1) {
			fields = append(fields, f[1])
		}
		assert.ElementsMatch(t, fields, jsonKeys(goType), name)
	}

	for name := range contractMessages {
		assert.True(t, seen[name], "Go type %s missing from ticketing.proto", name)
	}
}
