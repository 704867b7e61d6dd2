package parser

import (
	"github.com/Velocidex/ordereddict"
	"github.com/google/uuid"
)

const GUID_SIZE = 16

// ParseGUID converts a 16 byte windows GUID into a UUID. The first
// three groups are stored little endian on disk.
func ParseGUID(data []byte) (uuid.UUID, error) {
	result := uuid.UUID{}
	if len(data) < GUID_SIZE {
		return result, newParseError(MalformedContentError, -1, -1,
			"GUID of %d bytes is too short", len(data))
	}

	result[0], result[1], result[2], result[3] = data[3], data[2], data[1], data[0]
	result[4], result[5] = data[5], data[4]
	result[6], result[7] = data[7], data[6]
	copy(result[8:], data[8:GUID_SIZE])

	return result, nil
}

// $OBJECT_ID holds the object id and optionally the three birth ids
// used by the link tracking service.
type OBJECT_ID struct {
	object_id       uuid.UUID
	birth_volume_id *uuid.UUID
	birth_object_id *uuid.UUID
	domain_id       *uuid.UUID
}

func DecodeOBJECT_ID(data []byte) (*OBJECT_ID, error) {
	object_id, err := ParseGUID(data)
	if err != nil {
		return nil, err
	}

	self := &OBJECT_ID{object_id: object_id}

	optional := []**uuid.UUID{
		&self.birth_volume_id, &self.birth_object_id, &self.domain_id,
	}
	for i, target := range optional {
		start := GUID_SIZE * (i + 1)
		if len(data) < start+GUID_SIZE {
			break
		}

		id, err := ParseGUID(data[start:])
		if err != nil {
			return nil, err
		}
		*target = &id
	}

	return self, nil
}

func (self *OBJECT_ID) ObjectId() uuid.UUID {
	return self.object_id
}

// The optional ids are nil when not present.
func (self *OBJECT_ID) BirthVolumeId() *uuid.UUID {
	return self.birth_volume_id
}

func (self *OBJECT_ID) BirthObjectId() *uuid.UUID {
	return self.birth_object_id
}

func (self *OBJECT_ID) DomainId() *uuid.UUID {
	return self.domain_id
}

func (self *OBJECT_ID) Dict() *ordereddict.Dict {
	result := ordereddict.NewDict().Set("ObjectId", self.object_id.String())
	if self.birth_volume_id != nil {
		result.Set("BirthVolumeId", self.birth_volume_id.String())
	}
	if self.birth_object_id != nil {
		result.Set("BirthObjectId", self.birth_object_id.String())
	}
	if self.domain_id != nil {
		result.Set("DomainId", self.domain_id.String())
	}
	return result
}
