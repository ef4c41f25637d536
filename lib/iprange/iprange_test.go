package iprange

import "testing"

var gatewayNetworks = []string{
	"185.71.76.0/27",
	"185.71.77.0/27",
	"77.75.153.0/25",
	"77.75.156.11",
	"77.75.156.35",
	"77.75.154.128/25",
	"2a02:5180::/32",
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]string{"185.71.76.0/27", "not-an-ip"}); err == nil {
		t.Fatalf("expected error for invalid entry")
	}
}

func TestContainsString(t *testing.T) {
	list, err := Parse(gatewayNetworks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "185.71.76.5", want: true},
		{ip: "185.71.76.31", want: true},
		{ip: "185.71.76.32", want: false},
		{ip: "77.75.156.11", want: true},
		{ip: "77.75.156.12", want: false},
		{ip: "77.75.154.200", want: true},
		{ip: "2a02:5180::1", want: true},
		{ip: "2a03:5180::1", want: false},
		{ip: "::ffff:77.75.156.35", want: true},
		{ip: "10.0.0.1", want: false},
		{ip: "", want: false},
		{ip: "garbage", want: false},
	}

	for _, tt := range tests {
		if got := list.ContainsString(tt.ip); got != tt.want {
			t.Fatalf("ContainsString(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}
