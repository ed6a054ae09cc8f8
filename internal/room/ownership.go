package room

import "github.com/elliotchance/orderedmap/v2"

// ownership records which transient entities each member created, in
// creation order, so a departure can remove exactly those.
type ownership struct {
	byConn map[string]*orderedmap.OrderedMap[string, struct{}]
}

func newOwnership() *ownership {
	return &ownership{
		byConn: make(map[string]*orderedmap.OrderedMap[string, struct{}]),
	}
}

func (o *ownership) record(connId, entityId string) {
	owned, ok := o.byConn[connId]
	if !ok {
		owned = orderedmap.NewOrderedMap[string, struct{}]()
		o.byConn[connId] = owned
	}
	owned.Set(entityId, struct{}{})
}

func (o *ownership) forget(connId, entityId string) {
	if owned, ok := o.byConn[connId]; ok {
		owned.Delete(entityId)
	}
}

// take returns and clears everything connId owns.
func (o *ownership) take(connId string) []string {
	owned, ok := o.byConn[connId]
	if !ok {
		return nil
	}
	delete(o.byConn, connId)

	ids := make([]string, 0, owned.Len())
	for el := owned.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Key)
	}
	return ids
}

func (o *ownership) owned(connId string) int {
	if owned, ok := o.byConn[connId]; ok {
		return owned.Len()
	}
	return 0
}
