package btree

/*
data item in a node.
key is the blank-padded index key and orders the items.
val is the record offset the key points at; the tree never interprets it.
*/
type item struct {
	key []byte
	val int64
}
