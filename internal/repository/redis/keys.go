package repository

import "fmt"

const keyPrefix = "tickets"

func eventKey(eID string) string {
	return fmt.Sprintf("%s:event:%s", keyPrefix, eID)
}

func eventVersionKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:version", keyPrefix, eID)
}

func ticketTypesKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:types", keyPrefix, eID)
}

func ticketTypeKey(eID, tID string) string {
	return fmt.Sprintf("%s:event:%s:type:%s", keyPrefix, eID, tID)
}

func soldCountKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:sold", keyPrefix, eID)
}

func offersKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:offers", keyPrefix, eID)
}

func sequenceKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:seq", keyPrefix, eID)
}

func waitingKey(eID, group string) string {
	return fmt.Sprintf("%s:event:%s:waiting:%s", keyPrefix, eID, group)
}

func waitingGroupsKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:groups", keyPrefix, eID)
}

func eventTicketsKey(eID string) string {
	return fmt.Sprintf("%s:event:%s:tickets", keyPrefix, eID)
}

func entryKey(id string) string {
	return fmt.Sprintf("%s:entry:%s", keyPrefix, id)
}

func userEntryKey(eID, uID string) string {
	return fmt.Sprintf("%s:user:%s:event:%s:entry", keyPrefix, uID, eID)
}

func userTicketsKey(uID string) string {
	return fmt.Sprintf("%s:user:%s:tickets", keyPrefix, uID)
}

func ticketKey(id string) string {
	return fmt.Sprintf("%s:ticket:%s", keyPrefix, id)
}

func pendingEventsKey() string {
	return keyPrefix + ":index:pending_events"
}

func offerEventsKey() string {
	return keyPrefix + ":index:offer_events"
}

func jobQueueKey(queue string) string {
	return fmt.Sprintf("%s:jobs:%s", keyPrefix, queue)
}

func rateLimitKey(action, subject string) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s", keyPrefix, action, subject)
}
