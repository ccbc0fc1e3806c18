package schema

// Field maps a caller-facing logical name to a physical column or to a
// fixed SQL expression.
type Field struct {
	Name    string
	Alias   string
	Column  string
	Type    ColumnType
	JoinKey string // empty when the column lives on the base table

	// Expr is set for expression fields such as count or total.
	Expr      string
	Aggregate bool
}

// SQL returns the fully qualified reference or the expression text.
func (f Field) SQL() string {
	if f.Expr != "" {
		return f.Expr
	}
	return f.Alias + "." + f.Column
}

type fieldSpec struct {
	name, alias, column, join string
}

func defaultFieldSpecs() []fieldSpec {
	return []fieldSpec{
		// transaction
		{"transactionId", "tr", "transactionid", ""},
		{"type", "tr", "transactionidtypeid", ""},
		{"year", "tr", "announcedyear", ""},
		{"month", "tr", "announcedmonth", ""},
		{"day", "tr", "announcedday", ""},
		{"closingYear", "tr", "closingyear", ""},
		{"closingMonth", "tr", "closingmonth", ""},
		{"closingDay", "tr", "closingday", ""},
		{"size", "tr", "transactionsize", ""},
		{"currencyId", "tr", "currencyid", ""},
		{"statusId", "tr", "statusid", ""},
		{"comments", "tr", "comments", ""},
		{"roundNumber", "tr", "roundnumber", ""},

		// transaction type
		{"transactionType", "tt", "transactionidtypeid", JoinType},
		{"typeName", "tt", "transactionidtypename", JoinType},

		// primary company
		{"companyId", "c", "companyid", JoinCompany},
		{"companyName", "c", "companyname", JoinCompany},
		{"state", "c", "stateid", JoinCompany},
		{"city", "c", "city", JoinCompany},
		{"zipCode", "c", "zipcode", JoinCompany},
		{"companyType", "c", "companytypeid", JoinCompany},
		{"companyStatus", "c", "companystatustypeid", JoinCompany},
		{"yearFounded", "c", "yearfounded", JoinCompany},
		{"monthFounded", "c", "monthfounded", JoinCompany},
		{"dayFounded", "c", "dayfounded", JoinCompany},
		{"incorporationCountry", "c", "incorporationcountryid", JoinCompany},
		{"incorporationState", "c", "incorporationstateid", JoinCompany},
		{"officePhone", "c", "officephonevalue", JoinCompany},
		{"officeFax", "c", "officefaxvalue", JoinCompany},
		{"otherPhone", "c", "otherphonevalue", JoinCompany},
		{"webpage", "c", "webpage", JoinCompany},

		// industry and country dimensions of the primary company
		{"industry", "si", "simpleindustryid", JoinIndustry},
		{"industryDescription", "si", "simpleindustrydescription", JoinIndustry},
		{"country", "geo", "countryid", JoinCountry},
		{"countryName", "geo", "country", JoinCountry},
		{"isoCountry2", "geo", "isocountry2", JoinCountry},
		{"isoCountry3", "geo", "isocountry3", JoinCountry},
		{"region", "geo", "region", JoinCountry},
		{"regionId", "geo", "regionid", JoinCountry},

		// currency
		{"currencyName", "cur", "currencyname", JoinCurrency},
		{"isoCode", "cur", "isocode", JoinCurrency},
		{"majorCurrency", "cur", "majorcurrencyflag", JoinCurrency},
		{"currencyCountry", "curgeo", "countryid", JoinCurrencyCountry},
		{"currencyCountryName", "curgeo", "country", JoinCurrencyCountry},

		// transaction to company relationships
		{"relationshipType", "crt", "transactiontocompreltypeid", JoinRelationType},
		{"relationshipName", "crt", "transactiontocompanyreltype", JoinRelationType},
		{"currentInvestment", "cr", "currentinvestment", JoinTransactionRel},
		{"individualEquity", "cr", "individualequity", JoinTransactionRel},
		{"percentAcquired", "cr", "percentacquired", JoinTransactionRel},
		{"leadInvestor", "cr", "leadinvestorflag", JoinTransactionRel},

		// company relationships
		{"companyRelId", "crel", "companyrelid", JoinCompanyRel},
		{"companyId2", "crel", "companyid2", JoinCompanyRel},
		{"companyRelType", "crel", "companyreltypeid", JoinCompanyRel},
		{"companyRelStakeType", "crel", "companyrelstaketypeid", JoinCompanyRel},
		{"percentOwnership", "crel", "percentownership", JoinCompanyRel},
		{"totalInvestment", "crel", "totalinvestment", JoinCompanyRel},

		// buyer and target, reached through the company relationship
		{"buyerId", "buyer", "companyid", JoinBuyerCompany},
		{"buyerName", "buyer", "companyname", JoinBuyerCompany},
		{"buyerIndustry", "buyersi", "simpleindustryid", JoinBuyerIndustry},
		{"buyerCountry", "buyergeo", "countryid", JoinBuyerCountry},
		{"targetId", "target", "companyid", JoinTargetCompany},
		{"targetName", "target", "companyname", JoinTargetCompany},
		{"targetIndustry", "targetsi", "simpleindustryid", JoinTargetIndustry},
		{"targetCountry", "targetgeo", "countryid", JoinTargetCountry},

		// advisors
		{"advisorId", "adv", "companyid", JoinAdvisorRel},
		{"advisorName", "advcompany", "companyname", JoinAdvisorCompany},
		{"advisorType", "at", "advisortypeid", JoinAdvisoryType},
		{"advisorTypeName", "at", "advisortypename", JoinAdvisoryType},
	}
}

func expressionFields() []Field {
	return []Field{
		{Name: "count", Expr: "COUNT(*)", Type: TypeInt, Aggregate: true},
		{Name: "total", Expr: "SUM(tr.transactionsize)", Type: TypeFloat, Aggregate: true},
		{Name: "average", Expr: "AVG(tr.transactionsize)", Type: TypeFloat, Aggregate: true},
		{Name: "max", Expr: "MAX(tr.transactionsize)", Type: TypeFloat, Aggregate: true},
		{Name: "min", Expr: "MIN(tr.transactionsize)", Type: TypeFloat, Aggregate: true},
	}
}
