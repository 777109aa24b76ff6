package model

type Asset struct {
	ID              string `json:"id,omitempty" bson:"_id,omitempty" yaml:"id"`
	Serial          string `json:"serial" bson:"serial" yaml:"serial"`
	Model           string `json:"model,omitempty" bson:"model" yaml:"model"`
	Color           string `json:"color,omitempty" bson:"color" yaml:"color"`
	CompanyProperty bool   `json:"company_property" bson:"company_property" yaml:"company_property"`
}

type Renter struct {
	ID    string `json:"id,omitempty" bson:"_id,omitempty" yaml:"id"`
	TaxID string `json:"tax_id" bson:"tax_id" yaml:"tax_id"`
	Name  string `json:"name" bson:"name" yaml:"name"`
}
