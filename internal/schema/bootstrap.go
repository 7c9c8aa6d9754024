package schema

import "github.com/roach88/tessera/internal/core"

// Bootstrap entids. The first 37 entids of the db partition are reserved for
// the system vocabulary and never change.
const (
	DbIdent            core.Entid = 1
	DbPartDb           core.Entid = 2
	DbTxInstant        core.Entid = 3
	DbInstallPartition core.Entid = 4
	DbInstallValueType core.Entid = 5
	DbInstallAttribute core.Entid = 6
	DbValueType        core.Entid = 7
	DbCardinality      core.Entid = 8
	DbUnique           core.Entid = 9
	DbIsComponent      core.Entid = 10
	DbIndex            core.Entid = 11
	DbFulltext         core.Entid = 12
	DbNoHistory        core.Entid = 13
	DbAdd              core.Entid = 14
	DbRetract          core.Entid = 15
	DbPartUser         core.Entid = 16
	DbPartTx           core.Entid = 17
	DbExcise           core.Entid = 18
	DbExciseAttrs      core.Entid = 19
	DbExciseBeforeT    core.Entid = 20
	DbExciseBefore     core.Entid = 21
	DbAlterAttribute   core.Entid = 22
	DbTypeRef          core.Entid = 23
	DbTypeKeyword      core.Entid = 24
	DbTypeLong         core.Entid = 25
	DbTypeDouble       core.Entid = 26
	DbTypeString       core.Entid = 27
	DbTypeBoolean      core.Entid = 28
	DbTypeInstant      core.Entid = 29
	DbTypeUUID         core.Entid = 30
	DbCardinalityOne   core.Entid = 31
	DbCardinalityMany  core.Entid = 32
	DbUniqueValue      core.Entid = 33
	DbUniqueIdentity   core.Entid = 34
	DbDoc              core.Entid = 35
	DbSchemaVersion    core.Entid = 36
	DbSchemaAttribute  core.Entid = 37
)

// Partition starts. Entids below PartUserStart belong to :db.part/db.
const (
	PartDbStart   core.Entid = 0
	PartUserStart core.Entid = 0x10000
	PartTxStart   core.Entid = 0x10000000
)

// BootstrapTx is the transaction that asserts the bootstrap datoms.
const BootstrapTx = PartTxStart

// BootstrapVersion is written to :db.schema/version by the bootstrap.
const BootstrapVersion = 1

func kw(ns, name string) core.Keyword { return core.NewKeyword(ns, name) }

// BootstrapIdents lists the system idents in entid order.
var BootstrapIdents = []struct {
	Ident core.Keyword
	Entid core.Entid
}{
	{kw("db", "ident"), DbIdent},
	{kw("db.part", "db"), DbPartDb},
	{kw("db", "txInstant"), DbTxInstant},
	{kw("db.install", "partition"), DbInstallPartition},
	{kw("db.install", "valueType"), DbInstallValueType},
	{kw("db.install", "attribute"), DbInstallAttribute},
	{kw("db", "valueType"), DbValueType},
	{kw("db", "cardinality"), DbCardinality},
	{kw("db", "unique"), DbUnique},
	{kw("db", "isComponent"), DbIsComponent},
	{kw("db", "index"), DbIndex},
	{kw("db", "fulltext"), DbFulltext},
	{kw("db", "noHistory"), DbNoHistory},
	{kw("db", "add"), DbAdd},
	{kw("db", "retract"), DbRetract},
	{kw("db.part", "user"), DbPartUser},
	{kw("db.part", "tx"), DbPartTx},
	{kw("db", "excise"), DbExcise},
	{kw("db.excise", "attrs"), DbExciseAttrs},
	{kw("db.excise", "beforeT"), DbExciseBeforeT},
	{kw("db.excise", "before"), DbExciseBefore},
	{kw("db.alter", "attribute"), DbAlterAttribute},
	{kw("db.type", "ref"), DbTypeRef},
	{kw("db.type", "keyword"), DbTypeKeyword},
	{kw("db.type", "long"), DbTypeLong},
	{kw("db.type", "double"), DbTypeDouble},
	{kw("db.type", "string"), DbTypeString},
	{kw("db.type", "boolean"), DbTypeBoolean},
	{kw("db.type", "instant"), DbTypeInstant},
	{kw("db.type", "uuid"), DbTypeUUID},
	{kw("db.cardinality", "one"), DbCardinalityOne},
	{kw("db.cardinality", "many"), DbCardinalityMany},
	{kw("db.unique", "value"), DbUniqueValue},
	{kw("db.unique", "identity"), DbUniqueIdentity},
	{kw("db", "doc"), DbDoc},
	{kw("db.schema", "version"), DbSchemaVersion},
	{kw("db.schema", "attribute"), DbSchemaAttribute},
}

// BootstrapAttributes is the symbolic schema of the system attributes.
var BootstrapAttributes = map[core.Entid]Attribute{
	DbIdent:            {ValueType: core.ValueTypeKeyword, Cardinality: CardinalityOne, Unique: UniqueIdentity, Index: true},
	DbInstallPartition: {ValueType: core.ValueTypeRef, Cardinality: CardinalityMany},
	DbInstallValueType: {ValueType: core.ValueTypeRef, Cardinality: CardinalityMany},
	DbInstallAttribute: {ValueType: core.ValueTypeRef, Cardinality: CardinalityMany},
	DbTxInstant:        {ValueType: core.ValueTypeInstant, Cardinality: CardinalityOne, Index: true},
	DbValueType:        {ValueType: core.ValueTypeRef, Cardinality: CardinalityOne},
	DbCardinality:      {ValueType: core.ValueTypeRef, Cardinality: CardinalityOne},
	DbDoc:              {ValueType: core.ValueTypeString, Cardinality: CardinalityOne},
	DbUnique:           {ValueType: core.ValueTypeRef, Cardinality: CardinalityOne},
	DbIsComponent:      {ValueType: core.ValueTypeBoolean, Cardinality: CardinalityOne},
	DbIndex:            {ValueType: core.ValueTypeBoolean, Cardinality: CardinalityOne},
	DbFulltext:         {ValueType: core.ValueTypeBoolean, Cardinality: CardinalityOne},
	DbNoHistory:        {ValueType: core.ValueTypeBoolean, Cardinality: CardinalityOne},
	DbAlterAttribute:   {ValueType: core.ValueTypeRef, Cardinality: CardinalityMany},
	DbSchemaVersion:    {ValueType: core.ValueTypeLong, Cardinality: CardinalityOne},
	DbSchemaAttribute:  {ValueType: core.ValueTypeRef, Cardinality: CardinalityMany, Unique: UniqueValue, Index: true},
}

// Bootstrap returns the schema of a freshly bootstrapped store.
func Bootstrap() *Schema {
	idents := make(map[core.Keyword]core.Entid, len(BootstrapIdents))
	for _, b := range BootstrapIdents {
		idents[b.Ident] = b.Entid
	}
	s, err := New(idents, BootstrapAttributes)
	if err != nil {
		panic("invalid bootstrap schema: " + err.Error())
	}
	return s
}

// BootstrapTriples returns the datoms that describe the bootstrap schema:
// one :db/ident per system ident, the property datoms of every system
// attribute, and the schema version.
func BootstrapTriples() []Triple {
	var triples []Triple
	for _, b := range BootstrapIdents {
		triples = append(triples, Triple{E: b.Entid, A: DbIdent, V: b.Ident})
	}
	for _, b := range BootstrapIdents {
		attr, ok := BootstrapAttributes[b.Entid]
		if !ok {
			continue
		}
		triples = append(triples, AttributeTriples(b.Entid, attr)...)
	}
	triples = append(triples, Triple{E: DbPartDb, A: DbSchemaVersion, V: core.Long(BootstrapVersion)})
	return triples
}

// AttributeTriples returns the property datoms describing attr.
// Boolean properties are only asserted when true.
func AttributeTriples(e core.Entid, attr Attribute) []Triple {
	triples := []Triple{
		{E: e, A: DbValueType, V: core.Ref(valueTypeEntid(attr.ValueType))},
		{E: e, A: DbCardinality, V: core.Ref(cardinalityEntid(attr.Cardinality))},
	}
	switch attr.Unique {
	case UniqueValue:
		triples = append(triples, Triple{E: e, A: DbUnique, V: core.Ref(DbUniqueValue)})
	case UniqueIdentity:
		triples = append(triples, Triple{E: e, A: DbUnique, V: core.Ref(DbUniqueIdentity)})
	}
	if attr.Index {
		triples = append(triples, Triple{E: e, A: DbIndex, V: core.Boolean(true)})
	}
	if attr.Fulltext {
		triples = append(triples, Triple{E: e, A: DbFulltext, V: core.Boolean(true)})
	}
	if attr.Component {
		triples = append(triples, Triple{E: e, A: DbIsComponent, V: core.Boolean(true)})
	}
	return triples
}

func valueTypeEntid(t core.ValueType) core.Entid {
	switch t {
	case core.ValueTypeRef:
		return DbTypeRef
	case core.ValueTypeKeyword:
		return DbTypeKeyword
	case core.ValueTypeLong:
		return DbTypeLong
	case core.ValueTypeDouble:
		return DbTypeDouble
	case core.ValueTypeString:
		return DbTypeString
	case core.ValueTypeBoolean:
		return DbTypeBoolean
	case core.ValueTypeInstant:
		return DbTypeInstant
	case core.ValueTypeUUID:
		return DbTypeUUID
	default:
		panic("no entid for invalid value type")
	}
}

func cardinalityEntid(c Cardinality) core.Entid {
	if c == CardinalityMany {
		return DbCardinalityMany
	}
	return DbCardinalityOne
}
