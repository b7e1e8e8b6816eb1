package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "Frames",
			builder: func() string {
				return Topics{}.Frames("paddock-link")
			},
			expected: "radiobridge/frames/paddock-link",
		},
		{
			name: "Health",
			builder: func() string {
				return Topics{}.Health("gw-field-01")
			},
			expected: "radiobridge/health/gw-field-01",
		},
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "radiobridge/system/status",
		},
		{
			name: "AllFrames",
			builder: func() string {
				return Topics{}.AllFrames()
			},
			expected: "radiobridge/frames/+",
		},
		{
			name: "AllHealth",
			builder: func() string {
				return Topics{}.AllHealth()
			},
			expected: "radiobridge/health/+",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
