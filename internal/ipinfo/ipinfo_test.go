package ipinfo

import "testing"

func TestCheckChangeFirstLookupRecordsBaseline(t *testing.T) {
	c := NewChecker()
	if change := c.CheckChange(Info{IP: "1.2.3.4", Country: "US"}); change != nil {
		t.Error("first lookup should not report a change")
	}
	ip, ok := c.PreviousIP()
	if !ok || ip != "1.2.3.4" {
		t.Errorf("previous ip = %q, ok=%v", ip, ok)
	}
}

func TestCheckChangeDetectsDifference(t *testing.T) {
	c := NewChecker()
	c.CheckChange(Info{IP: "1.2.3.4", Country: "US"})
	change := c.CheckChange(Info{IP: "5.6.7.8", Country: "CA"})
	if change == nil {
		t.Fatal("expected a change to be detected")
	}
	if change.OldIP != "1.2.3.4" || change.NewIP != "5.6.7.8" {
		t.Errorf("change = %+v, unexpected values", change)
	}
}

func TestCheckChangeSameIPNoChange(t *testing.T) {
	c := NewChecker()
	c.CheckChange(Info{IP: "1.2.3.4"})
	if change := c.CheckChange(Info{IP: "1.2.3.4"}); change != nil {
		t.Error("identical IP should not report a change")
	}
}

func TestCheckChangeErrorBecomesBaseline(t *testing.T) {
	c := NewChecker()
	c.CheckChange(Info{IP: "1.2.3.4"})
	c.CheckChange(Info{IP: "Error"})
	ip, _ := c.PreviousIP()
	if ip != "Error" {
		t.Errorf("previous ip = %q; source treats Error as the new baseline, matching ip_service.py", ip)
	}
}
