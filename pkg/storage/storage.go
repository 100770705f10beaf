package storage

// Repository defines the root interface for the transaction data layer.
// Components should depend on the narrower TransactionReader or TransactionWriter
// where they only need one side.
type Repository interface {
	TransactionReader
	TransactionWriter
}
