package reference

// TypeCatalog описывает один справочник типов-значений (Money, PhoneNumber, ...).
// Поля таких типов не считаются связями с другими сущностями.
type TypeCatalog struct {
	Name  string     `yaml:"name"`
	Types []TypeItem `yaml:"types"`
}

type TypeItem struct {
	Name string `yaml:"name"`
	// SQL тип колонки для DDL, пусто = text
	SQL  string `yaml:"sql,omitempty"`
	Note string `yaml:"note,omitempty"`
}
