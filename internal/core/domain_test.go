package core

import "testing"

func TestScoreDomains_FullRetailMatch(t *testing.T) {
	columns := []string{
		"sku", "store_id", "pos_transaction_id", "unit_price",
		"cashier_id", "register_id", "discount", "loyalty_id",
		"inventory_count", "retail_channel",
	}
	scores := ScoreDomains(columns)

	var retail DomainScore
	found := false
	for _, s := range scores {
		if s.Domain == "retail" {
			retail = s
			found = true
		}
	}
	if !found {
		t.Fatal("retail domain missing from scores")
	}
	if retail.Confidence != 100 {
		t.Errorf("expected confidence 100, got %d", retail.Confidence)
	}
	if len(retail.MatchedPrimary) != 4 {
		t.Errorf("expected 4 primary matches, got %d (%v)", len(retail.MatchedPrimary), retail.MatchedPrimary)
	}
	if len(retail.MatchedKeywords) != 5 {
		t.Errorf("expected 5 keyword matches, got %d (%v)", len(retail.MatchedKeywords), retail.MatchedKeywords)
	}
}

func TestScoreDomains_ColumnNameNormalization(t *testing.T) {
	columns := []string{"SKU", "Store ID", "POS-Transaction-ID", "unit price"}
	scores := ScoreDomains(columns)

	for _, s := range scores {
		if s.Domain == "retail" {
			if len(s.MatchedPrimary) != 4 {
				t.Errorf("expected all 4 primary columns to match despite case/whitespace/hyphen differences, got %v", s.MatchedPrimary)
			}
			return
		}
	}
	t.Fatal("retail domain missing from scores")
}

func TestScoreDomains_NoMatches(t *testing.T) {
	columns := []string{"random_col_a", "random_col_b", "foo_bar"}
	scores := ScoreDomains(columns)

	for _, s := range scores {
		if s.Score != 0 || s.Confidence != 0 {
			t.Errorf("domain %s: expected zero score/confidence, got score=%d confidence=%d", s.Domain, s.Score, s.Confidence)
		}
	}
}

func TestDecideDomain_AutoDetect(t *testing.T) {
	columns := []string{
		"sku", "store_id", "pos_transaction_id", "unit_price",
		"cashier_id", "register_id", "discount", "loyalty_id",
		"inventory_count", "retail_channel",
	}
	scores := ScoreDomains(columns)
	top, decision, top3 := DecideDomain(scores)

	if decision != DecisionAutoDetect {
		t.Fatalf("expected auto_detect, got %s", decision)
	}
	if top.Domain != "retail" {
		t.Errorf("expected retail to win, got %s", top.Domain)
	}
	if top3 != nil {
		t.Errorf("expected no top3 list for auto_detect, got %v", top3)
	}
}

func TestDecideDomain_ShowTop3(t *testing.T) {
	columns := []string{
		"sku", "store_id", "pos_transaction_id", "unit_price",
		"cashier_id",
	}
	scores := ScoreDomains(columns)
	top, decision, top3 := DecideDomain(scores)

	if decision != DecisionShowTop3 {
		t.Fatalf("expected show_top_3 at this confidence band, got %s (confidence %d)", decision, top.Confidence)
	}
	if top.Domain != "retail" {
		t.Errorf("expected retail to win, got %s", top.Domain)
	}
	if len(top3) != 3 {
		t.Errorf("expected 3 alternatives, got %d", len(top3))
	}
	if top3[0].Domain != "retail" {
		t.Errorf("expected retail first in top3, got %s", top3[0].Domain)
	}
}

func TestDecideDomain_ManualSelect(t *testing.T) {
	columns := []string{"random_col_a", "random_col_b", "foo_bar"}
	scores := ScoreDomains(columns)
	top, decision, top3 := DecideDomain(scores)

	if decision != DecisionManualSelect {
		t.Fatalf("expected manual_select, got %s", decision)
	}
	// every domain scores zero; the tie breaks to declaration order, and
	// retail is registered first in domain_library.go.
	if top.Domain != "retail" {
		t.Errorf("expected retail as the tie-break winner, got %s", top.Domain)
	}
	if top3 != nil {
		t.Errorf("expected no top3 list for manual_select, got %v", top3)
	}
}

func TestDecideDomain_EmptyScores(t *testing.T) {
	top, decision, top3 := DecideDomain(nil)
	if decision != DecisionManualSelect {
		t.Errorf("expected manual_select for empty scores, got %s", decision)
	}
	if top.Domain != "" {
		t.Errorf("expected zero-value domain, got %q", top.Domain)
	}
	if top3 != nil {
		t.Errorf("expected nil top3, got %v", top3)
	}
}

func TestClassifyDomain_AutoDetectMarksJobCompleted(t *testing.T) {
	columns := []string{
		"sku", "store_id", "pos_transaction_id", "unit_price",
		"cashier_id", "register_id", "discount", "loyalty_id",
		"inventory_count", "retail_channel",
	}
	job, top3 := ClassifyDomain(columns)

	if job.Decision != DecisionAutoDetect {
		t.Fatalf("expected auto_detect, got %s", job.Decision)
	}
	if job.Status != DomainCompleted {
		t.Errorf("expected status completed on auto_detect, got %s", job.Status)
	}
	if job.Domain != "retail" {
		t.Errorf("expected retail, got %s", job.Domain)
	}
	if top3 != nil {
		t.Errorf("expected nil top3 for auto_detect, got %v", top3)
	}
	if job.AllScores["retail"] == 0 {
		t.Errorf("expected a nonzero retail score in AllScores, got %v", job.AllScores)
	}
}

func TestClassifyDomain_ShowTop3LeavesJobPending(t *testing.T) {
	columns := []string{
		"sku", "store_id", "pos_transaction_id", "unit_price",
		"cashier_id",
	}
	job, top3 := ClassifyDomain(columns)

	if job.Decision != DecisionShowTop3 {
		t.Fatalf("expected show_top_3, got %s", job.Decision)
	}
	if job.Status != DomainPending {
		t.Errorf("expected status pending until confirmed, got %s", job.Status)
	}
	if len(top3) != 3 {
		t.Errorf("expected 3 alternatives, got %d", len(top3))
	}
}
