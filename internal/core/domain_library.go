package core

// DomainSignature is one entry of the fixed domain-classification
// library: the column vocabulary that identifies a business domain from
// a project's cleaned column universe.
type DomainSignature struct {
	Domain            string
	PrimaryColumns    []string
	SecondaryColumns  []string
	Keywords          []string
}

var domainLibrary = newLibrary[DomainSignature]()

func init() {
	for _, sig := range []DomainSignature{
		{
			Domain:           "retail",
			PrimaryColumns:   []string{"sku", "store_id", "pos_transaction_id", "unit_price"},
			SecondaryColumns: []string{"cashier_id", "register_id", "discount", "loyalty_id"},
			Keywords:         []string{"store", "pos", "sku", "inventory", "retail"},
		},
		{
			Domain:           "ecommerce",
			PrimaryColumns:   []string{"order_id", "cart_id", "shipping_address", "product_id"},
			SecondaryColumns: []string{"session_id", "coupon_code", "referrer", "checkout_id"},
			Keywords:         []string{"cart", "checkout", "order", "shipping", "ecommerce"},
		},
		{
			Domain:           "saas",
			PrimaryColumns:   []string{"subscription_id", "plan_id", "mrr", "account_id"},
			SecondaryColumns: []string{"seat_count", "churn_date", "trial_end", "tenant_id"},
			Keywords:         []string{"subscription", "plan", "tenant", "seat", "churn"},
		},
		{
			Domain:           "healthcare",
			PrimaryColumns:   []string{"patient_id", "diagnosis_code", "provider_id", "encounter_id"},
			SecondaryColumns: []string{"icd_code", "admission_date", "discharge_date", "claim_id"},
			Keywords:         []string{"patient", "diagnosis", "clinical", "provider", "encounter"},
		},
		{
			Domain:           "manufacturing",
			PrimaryColumns:   []string{"work_order_id", "machine_id", "batch_id", "defect_count"},
			SecondaryColumns: []string{"shift_id", "downtime_minutes", "scrap_rate", "operator_id"},
			Keywords:         []string{"machine", "batch", "scrap", "downtime", "work_order"},
		},
		{
			Domain:           "logistics",
			PrimaryColumns:   []string{"shipment_id", "carrier_id", "tracking_number", "warehouse_id"},
			SecondaryColumns: []string{"route_id", "pallet_id", "eta", "dwell_time"},
			Keywords:         []string{"shipment", "carrier", "warehouse", "freight", "tracking"},
		},
		{
			Domain:           "financial",
			PrimaryColumns:   []string{"account_number", "transaction_id", "ledger_id", "gl_code"},
			SecondaryColumns: []string{"debit", "credit", "currency_code", "settlement_date"},
			Keywords:         []string{"ledger", "debit", "credit", "gl", "settlement"},
		},
		{
			Domain:           "education",
			PrimaryColumns:   []string{"student_id", "course_id", "enrollment_id", "term_id"},
			SecondaryColumns: []string{"instructor_id", "gpa", "credit_hours", "section_id"},
			Keywords:         []string{"student", "course", "enrollment", "term", "gpa"},
		},
	} {
		domainLibrary.set(sig.Domain, sig)
	}
}
