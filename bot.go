// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

// botResponses is the fixed set of canned responder replies. The responder is
// deterministic flavor text, not intelligence: a given input value always
// produces the same exchange.
var botResponses = [...]string{
	"I understand your encrypted input!",
	"Processing your secure message...",
	"FHE computation completed successfully",
	"Your privacy is protected with homomorphic encryption",
	"AI response generated from encrypted data",
}

// BotResponse returns the canned reply text and reply value for a
// user-submitted value. The reply value is value+1, and the reply text is
// indexed by it modulo the response set size.
func BotResponse(value uint64) (string, uint64) {
	next := value + 1
	return botResponses[next%uint64(len(botResponses))], next
}
