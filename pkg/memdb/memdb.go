package memdb

import (
	"fixsession/schema"

	"github.com/hashicorp/go-memdb"
)

type MemDB struct {
	Name string
	Db   *memdb.MemDB
}

type Schemas struct {
	Message  *MemDB
	Sequence *MemDB
}

func InitSchemas() (*Schemas, error) {
	message, err := InitSchema(schema.MessageTable, schema.MessageSchema)
	if err != nil {
		return nil, err
	}

	sequence, err := InitSchema(schema.SequenceTable, schema.SequenceSchema)
	if err != nil {
		return nil, err
	}

	return &Schemas{Message: message, Sequence: sequence}, nil
}

func InitSchema(name string, schema *memdb.DBSchema) (*MemDB, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}

	return &MemDB{Db: db, Name: name}, nil
}

func (m *MemDB) Find(index string, args ...interface{}) []interface{} {
	txn := m.Db.Txn(false)

	it, err := txn.Get(m.Name, index, args...)
	if err != nil {
		return []interface{}{}
	}

	res := []interface{}{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		res = append(res, obj)
	}

	return res
}

func (m *MemDB) FindOne(index string, args ...interface{}) (interface{}, error) {
	txn := m.Db.Txn(false)

	raw, err := txn.First(m.Name, index, args...)
	if err != nil {
		return nil, err
	}

	return raw, nil
}

// Upsert inserts data, replacing any object with the same id index.
func (m *MemDB) Upsert(data interface{}) error {
	txn := m.Db.Txn(true)

	if e := txn.Insert(m.Name, data); e != nil {
		txn.Abort()
		return e
	}

	txn.Commit()

	return nil
}

func (m *MemDB) Clear(index string, args ...interface{}) (int, error) {
	txn := m.Db.Txn(true)

	status, err := txn.DeleteAll(m.Name, index, args...)
	if err != nil {
		txn.Abort()

		return status, err
	}

	txn.Commit()

	return status, nil
}
