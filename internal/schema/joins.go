package schema

// JoinPath is a named edge from the base table to a dimension table.
// Requires lists join keys that must be emitted before this one.
type JoinPath struct {
	Key       string
	Table     string
	Alias     string
	Condition string
	Requires  []string
}

// Join path keys.
const (
	JoinType            = "type"
	JoinCompany         = "company"
	JoinIndustry        = "industry"
	JoinCountry         = "country"
	JoinCurrency        = "currency"
	JoinCurrencyCountry = "currency_country"
	JoinTransactionRel  = "transaction_rel"
	JoinRelationType    = "relation_type"
	JoinCompanyRel      = "company_rel"
	JoinBuyerCompany    = "buyer_company"
	JoinBuyerIndustry   = "buyer_industry"
	JoinBuyerCountry    = "buyer_country"
	JoinTargetCompany   = "target_company"
	JoinTargetIndustry  = "target_industry"
	JoinTargetCountry   = "target_country"
	JoinAdvisorRel      = "advisor_rel"
	JoinAdvisoryType    = "advisory_type"
	JoinAdvisorCompany  = "advisor_company"
)

func defaultJoins() []JoinPath {
	return []JoinPath{
		{Key: JoinType, Table: TableTransactionType, Alias: "tt",
			Condition: "tr.transactionidtypeid = tt.transactionidtypeid"},
		{Key: JoinCompany, Table: TableCompany, Alias: "c",
			Condition: "tr.companyid = c.companyid"},
		{Key: JoinIndustry, Table: TableSimpleIndustry, Alias: "si",
			Condition: "c.simpleindustryid = si.simpleindustryid", Requires: []string{JoinCompany}},
		{Key: JoinCountry, Table: TableCountryGeo, Alias: "geo",
			Condition: "c.countryid = geo.countryid", Requires: []string{JoinCompany}},
		{Key: JoinCurrency, Table: TableCurrency, Alias: "cur",
			Condition: "tr.currencyid = cur.currencyid"},
		{Key: JoinCurrencyCountry, Table: TableCountryGeo, Alias: "curgeo",
			Condition: "cur.countryid = curgeo.countryid", Requires: []string{JoinCurrency}},
		{Key: JoinTransactionRel, Table: TableTransactionToCompRel, Alias: "cr",
			Condition: "cr.transactionid = tr.transactionid"},
		{Key: JoinRelationType, Table: TableTransactionRelType, Alias: "crt",
			Condition: "cr.transactiontocompreltypeid = crt.transactiontocompreltypeid", Requires: []string{JoinTransactionRel}},
		{Key: JoinCompanyRel, Table: TableCompanyRel, Alias: "crel",
			Condition: "cr.companyrelid = crel.companyrelid", Requires: []string{JoinTransactionRel}},
		{Key: JoinBuyerCompany, Table: TableCompany, Alias: "buyer",
			Condition: "crel.companyid = buyer.companyid", Requires: []string{JoinCompanyRel}},
		{Key: JoinBuyerIndustry, Table: TableSimpleIndustry, Alias: "buyersi",
			Condition: "buyer.simpleindustryid = buyersi.simpleindustryid", Requires: []string{JoinBuyerCompany}},
		{Key: JoinBuyerCountry, Table: TableCountryGeo, Alias: "buyergeo",
			Condition: "buyer.countryid = buyergeo.countryid", Requires: []string{JoinBuyerCompany}},
		{Key: JoinTargetCompany, Table: TableCompany, Alias: "target",
			Condition: "crel.companyid2 = target.companyid", Requires: []string{JoinCompanyRel}},
		{Key: JoinTargetIndustry, Table: TableSimpleIndustry, Alias: "targetsi",
			Condition: "target.simpleindustryid = targetsi.simpleindustryid", Requires: []string{JoinTargetCompany}},
		{Key: JoinTargetCountry, Table: TableCountryGeo, Alias: "targetgeo",
			Condition: "target.countryid = targetgeo.countryid", Requires: []string{JoinTargetCompany}},
		{Key: JoinAdvisorRel, Table: TableTransactionToAdvisor, Alias: "adv",
			Condition: "adv.transactionid = tr.transactionid"},
		{Key: JoinAdvisoryType, Table: TableAdvisorType, Alias: "at",
			Condition: "adv.advisortypeid = at.advisortypeid", Requires: []string{JoinAdvisorRel}},
		{Key: JoinAdvisorCompany, Table: TableCompany, Alias: "advcompany",
			Condition: "adv.companyid = advcompany.companyid", Requires: []string{JoinAdvisorRel}},
	}
}
