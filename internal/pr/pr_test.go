package pr

import "testing"

func TestPending(t *testing.T) {
	t.Parallel()

	if (Comment{ID: 12345}).Pending() {
		t.Error("server comment reported pending")
	}
	if !(Comment{ID: -1}).Pending() {
		t.Error("placeholder comment not reported pending")
	}
	if !(IssueComment{ID: -7}).Pending() {
		t.Error("placeholder issue comment not reported pending")
	}
	if (Review{ID: 99}).Pending() {
		t.Error("server review reported pending")
	}
	if !(Review{ID: -2}).Pending() {
		t.Error("placeholder review not reported pending")
	}
}
