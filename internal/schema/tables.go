// Package schema holds the compiled-in model of the transaction warehouse:
// tables, join paths, and the logical field table that requests are resolved
// against. Everything in this package is immutable after construction.
package schema

// ColumnType drives literal parsing and rendering for filter values.
type ColumnType string

// Supported column types.
const (
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeString ColumnType = "string"
	TypeBool   ColumnType = "bool"
)

// Numeric reports whether values of this type must parse as numbers.
func (t ColumnType) Numeric() bool {
	return t == TypeInt || t == TypeFloat || t == TypeBool
}

// Column is a physical column of a table.
type Column struct {
	Name string
	Type ColumnType
}

// Table describes one physical table and its canonical alias.
type Table struct {
	Name       string
	Alias      string
	PrimaryKey string
	Columns    []Column
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Table names.
const (
	TableTransaction          = "ciqTransaction"
	TableCompany              = "ciqCompany"
	TableSimpleIndustry       = "ciqSimpleIndustry"
	TableCountryGeo           = "ciqCountryGeo"
	TableCurrency             = "ciqCurrency"
	TableTransactionType      = "ciqTransactionType"
	TableCompanyRel           = "ciqCompanyRel"
	TableTransactionToCompRel = "ciqTransactionToCompanyRel"
	TableTransactionRelType   = "ciqTransactionToCompRelType"
	TableTransactionToAdvisor = "ciqTransactionToAdvisor"
	TableAdvisorType          = "ciqAdvisorType"
)

// BaseAlias is the alias of the transaction fact table.
const BaseAlias = "tr"

func ints(names ...string) []Column { return of(TypeInt, names...) }

func cols(groups ...[]Column) []Column {
	var out []Column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func of(t ColumnType, names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n, Type: t}
	}
	return out
}

func defaultTables() []Table {
	return []Table{
		{
			Name: TableTransaction, Alias: BaseAlias, PrimaryKey: "transactionid",
			Columns: cols(
				ints("transactionid", "transactionidtypeid", "statusid", "companyid", "currencyid",
					"announcedyear", "announcedmonth", "announcedday",
					"closingyear", "closingmonth", "closingday", "roundnumber"),
				of(TypeFloat, "transactionsize"),
				of(TypeString, "comments"),
			),
		},
		{
			Name: TableCompany, Alias: "c", PrimaryKey: "companyid",
			Columns: cols(
				ints("companyid", "simpleindustryid", "countryid", "stateid",
					"companytypeid", "companystatustypeid",
					"yearfounded", "monthfounded", "dayfounded",
					"incorporationcountryid", "incorporationstateid"),
				of(TypeString, "companyname", "city", "zipcode",
					"streetaddress1", "streetaddress2",
					"officephonevalue", "officefaxvalue", "otherphonevalue", "webpage"),
			),
		},
		{
			Name: TableSimpleIndustry, Alias: "si", PrimaryKey: "simpleindustryid",
			Columns: cols(ints("simpleindustryid"), of(TypeString, "simpleindustrydescription")),
		},
		{
			Name: TableCountryGeo, Alias: "geo", PrimaryKey: "countryid",
			Columns: cols(ints("countryid", "regionid"), of(TypeString, "country", "isocountry2", "isocountry3", "region")),
		},
		{
			Name: TableCurrency, Alias: "cur", PrimaryKey: "currencyid",
			Columns: cols(ints("currencyid", "countryid"), of(TypeBool, "majorcurrencyflag"), of(TypeString, "currencyname", "isocode")),
		},
		{
			Name: TableTransactionType, Alias: "tt", PrimaryKey: "transactionidtypeid",
			Columns: cols(ints("transactionidtypeid"), of(TypeString, "transactionidtypename")),
		},
		{
			Name: TableCompanyRel, Alias: "crel", PrimaryKey: "companyrelid",
			Columns: cols(
				ints("companyrelid", "companyid", "companyid2", "companyreltypeid", "companyrelstaketypeid"),
				of(TypeFloat, "percentownership", "totalinvestment"),
			),
		},
		{
			Name: TableTransactionToCompRel, Alias: "cr", PrimaryKey: "transactiontocompanyrelid",
			Columns: cols(
				ints("transactiontocompanyrelid", "transactionid", "companyrelid", "transactiontocompreltypeid"),
				of(TypeBool, "leadinvestorflag"),
				of(TypeFloat, "currentinvestment", "individualequity", "percentacquired"),
			),
		},
		{
			Name: TableTransactionRelType, Alias: "crt", PrimaryKey: "transactiontocompreltypeid",
			Columns: cols(ints("transactiontocompreltypeid"), of(TypeString, "transactiontocompanyreltype")),
		},
		{
			Name: TableTransactionToAdvisor, Alias: "adv", PrimaryKey: "transactiontoadvisorid",
			Columns: ints("transactiontoadvisorid", "transactionid", "companyid", "advisortypeid"),
		},
		{
			Name: TableAdvisorType, Alias: "at", PrimaryKey: "advisortypeid",
			Columns: cols(ints("advisortypeid"), of(TypeString, "advisortypename")),
		},
	}
}
