package parser

import (
	"errors"
	"fmt"

	"github.com/Velocidex/ordereddict"
)

// AttributeContent is the decoded content of an attribute. The
// concrete type depends on the attribute type:
//
//	$STANDARD_INFORMATION -> *STANDARD_INFORMATION
//	$ATTRIBUTE_LIST       -> *ATTRIBUTE_LIST
//	$FILE_NAME            -> *FILE_NAME
//	$OBJECT_ID            -> *OBJECT_ID
//	$VOLUME_NAME          -> *VOLUME_NAME
//	$DATA                 -> *DATA
//	$INDEX_ROOT           -> *INDEX_ROOT
//	anything else         -> *RawContent
//
// Non-resident attributes always decode to DataRunList.
type AttributeContent interface {
	Dict() *ordereddict.Dict
}

// Content decodes the attribute. The decoding is done on every call
// from the record buffer, nothing is cached.
func (self *NTFS_ATTRIBUTE) Content() (AttributeContent, error) {
	if self.NonResident != nil {
		runs, err := self.NonResident.DataRuns()
		if err != nil {
			return nil, self.contentError(err)
		}
		return DataRunList(runs), nil
	}

	data := self.Resident.Data()

	var result AttributeContent
	var err error

	switch self.attr_type {
	case ATTR_TYPE_STANDARD_INFORMATION:
		result, err = DecodeSTANDARD_INFORMATION(data)

	case ATTR_TYPE_ATTRIBUTE_LIST:
		result, err = DecodeATTRIBUTE_LIST(data)

	case ATTR_TYPE_FILE_NAME:
		result, err = DecodeFILE_NAME(data)

	case ATTR_TYPE_OBJECT_ID:
		result, err = DecodeOBJECT_ID(data)

	case ATTR_TYPE_VOLUME_NAME:
		result = &VOLUME_NAME{name: ParseUTF16String(data)}

	case ATTR_TYPE_DATA:
		result = &DATA{data: data}

	case ATTR_TYPE_INDEX_ROOT:
		result, err = DecodeINDEX_ROOT(data)

	default:
		result = &RawContent{Type: self.attr_type, data: data}
	}

	if err != nil {
		return nil, self.contentError(err)
	}
	return result, nil
}

// Decoder errors do not know which entry they come from.
func (self *NTFS_ATTRIBUTE) contentError(err error) error {
	kind := MalformedContentError
	var parse_error *ParseError
	if errors.As(err, &parse_error) {
		kind = parse_error.Kind
	}
	return &ParseError{
		Kind:    kind,
		EntryId: self.entry_id,
		Offset:  self.Offset,
		Message: fmt.Sprintf("attribute %v id %d", self.attr_type, self.attribute_id),
		Cause:   err,
	}
}

// DataRunList is the content of a non-resident attribute.
type DataRunList []DataRun

func (self DataRunList) Dict() *ordereddict.Dict {
	runs := []*ordereddict.Dict{}
	for _, r := range self {
		run := ordereddict.NewDict().
			Set("VCN", r.VCN).
			Set("Length", r.Length).
			Set("IsSparse", r.IsSparse)
		if !r.IsSparse {
			run.Set("LCN", r.LCN).Set("RelativeLCNOffset", r.RelativeLCNOffset)
		}
		runs = append(runs, run)
	}
	return ordereddict.NewDict().
		Set("Runs", runs).
		Set("Clusters", ClusterCount(self))
}

// Resident $DATA.
type DATA struct {
	data []byte
}

func (self *DATA) Data() []byte {
	return self.data
}

func (self *DATA) Dict() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Size", len(self.data)).
		Set("Data", self.data)
}

type VOLUME_NAME struct {
	name string
}

func (self *VOLUME_NAME) Name() string {
	return self.name
}

func (self *VOLUME_NAME) Dict() *ordereddict.Dict {
	return ordereddict.NewDict().Set("Name", self.name)
}

// RawContent holds the bytes of attribute types without a decoder.
type RawContent struct {
	Type AttributeType
	data []byte
}

func (self *RawContent) Data() []byte {
	return self.data
}

func (self *RawContent) Dict() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Type", self.Type.Name()).
		Set("Size", len(self.data)).
		Set("Data", self.data)
}
