package parser

import "fmt"

type inodeKey struct {
	attr_type AttributeType
	attr_id   uint16
}

// InodeFormatter names the attributes of one entry as
// entry-type-id. The stream name is only appended when another
// attribute with the same type and id was already named.
type InodeFormatter struct {
	seen map[inodeKey]bool
}

func (self *InodeFormatter) Inode(mft_id int64,
	attr_type AttributeType, attr_id uint16, name string) string {
	if self.seen == nil {
		self.seen = make(map[inodeKey]bool)
	}

	inode := fmt.Sprintf("%d-%d-%d", mft_id, uint32(attr_type), attr_id)

	key := inodeKey{attr_type: attr_type, attr_id: attr_id}
	if self.seen[key] && name != "" {
		return inode + ":" + name
	}
	self.seen[key] = true

	return inode
}
