package enums

import "testing"

func TestOrderStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"created to paid", OrderStatusCreated, OrderStatusPaid, true},
		{"paid to shipped", OrderStatusPaid, OrderStatusShipped, true},
		{"paid skips to delivered", OrderStatusPaid, OrderStatusDelivered, true},
		{"shipped to out for delivery", OrderStatusShipped, OrderStatusOutForDelivery, true},
		{"delivered is terminal", OrderStatusDelivered, OrderStatusShipped, false},
		{"no backward move", OrderStatusShipped, OrderStatusPaid, false},
		{"no self transition", OrderStatusPaid, OrderStatusPaid, false},
		{"cancel before shipping", OrderStatusPaid, OrderStatusCancelled, true},
		{"cancel after shipping", OrderStatusShipped, OrderStatusCancelled, true},
		{"cancel out for delivery", OrderStatusOutForDelivery, OrderStatusCancelled, true},
		{"no cancel once delivered", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPaid, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("out_for_delivery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusOutForDelivery {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseOrderStatus("teleported"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
