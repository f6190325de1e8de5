package enums

import "testing"

func TestReturnStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ReturnStatus
		want     bool
	}{
		{ReturnStatusRequested, ReturnStatusApproved, true},
		{ReturnStatusRequested, ReturnStatusRejected, true},
		{ReturnStatusApproved, ReturnStatusRefunded, true},
		{ReturnStatusRequested, ReturnStatusRefunded, false},
		{ReturnStatusApproved, ReturnStatusRejected, false},
		{ReturnStatusRejected, ReturnStatusApproved, false},
		{ReturnStatusRefunded, ReturnStatusRequested, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseOrderStatus("LOST"); err == nil {
		t.Fatal("expected unknown order status to fail")
	}
	if _, err := ParseOrderType("self"); err == nil {
		t.Fatal("order type parsing is case sensitive")
	}
	if got, err := ParsePaymentMethod("POS_CASH"); err != nil || got != PaymentMethodPOSCash {
		t.Fatalf("expected POS_CASH, got %q err=%v", got, err)
	}
}

func TestUserRoleIsStaff(t *testing.T) {
	if UserRoleCustomer.IsStaff() {
		t.Fatal("customers are not staff")
	}
	if !UserRoleEmployee.IsStaff() || !UserRoleAdmin.IsStaff() {
		t.Fatal("employees and admins are staff")
	}
}

func TestOutboxValuesParse(t *testing.T) {
	got, err := ParseOutboxEventType("inventory_adjusted")
	if err != nil || got != EventInventoryAdjusted {
		t.Fatalf("expected inventory_adjusted, got %q err=%v", got, err)
	}
	if _, err := ParseOutboxAggregateType("ORDER"); err == nil {
		t.Fatal("aggregate types are lower case")
	}
	if !OutboxDLQReasonNonRetryable.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatal("unexpected dlq reason validity")
	}
}

func TestParseErrorNamesKind(t *testing.T) {
	_, err := ParseLocationType("STORE")
	if err == nil || err.Error() != `invalid location type "STORE"` {
		t.Fatalf("unexpected error: %v", err)
	}
}
