// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		expected ChatStats
	}{
		{
			name:     "empty",
			expected: ChatStats{},
		},
		{
			name: "counts verified and disclosed separately",
			messages: []Message{
				{Timestamp: 10},
				{Timestamp: 20, IsVerified: true},
				{Timestamp: 30, IsVerified: true, DecryptedValue: 7},
			},
			expected: ChatStats{
				TotalMessages:     3,
				EncryptedMessages: 2,
				VerifiedMessages:  1,
				AvgResponseTime:   20,
			},
		},
		{
			name: "unverified value is not counted",
			messages: []Message{
				{Timestamp: 5, DecryptedValue: 42},
			},
			expected: ChatStats{
				TotalMessages:   1,
				AvgResponseTime: 5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			stats := ComputeStats(tt.messages)
			require.Equal(tt.expected, stats)

			// Disclosed is always a subset of verified.
			require.LessOrEqual(stats.VerifiedMessages, stats.EncryptedMessages)
		})
	}
}
