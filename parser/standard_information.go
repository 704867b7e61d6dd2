package parser

import (
	"fmt"
	"strings"

	"github.com/Velocidex/ordereddict"
)

const (
	// NTFS 1.2 layout.
	STANDARD_INFORMATION_SIZE = 0x30

	// NTFS 3.0 adds owner, security, quota and usn.
	STANDARD_INFORMATION_SIZE_V3 = 0x48
)

// Windows file attribute flags used by $STANDARD_INFORMATION and
// $FILE_NAME.
type FileAttributeFlags uint32

var fileAttributeNames = []struct {
	flag FileAttributeFlags
	name string
}{
	{0x00000001, "READ_ONLY"},
	{0x00000002, "HIDDEN"},
	{0x00000004, "SYSTEM"},
	{0x00000020, "ARCHIVE"},
	{0x00000040, "DEVICE"},
	{0x00000080, "NORMAL"},
	{0x00000100, "TEMPORARY"},
	{0x00000200, "SPARSE_FILE"},
	{0x00000400, "REPARSE_POINT"},
	{0x00000800, "COMPRESSED"},
	{0x00001000, "OFFLINE"},
	{0x00002000, "NOT_CONTENT_INDEXED"},
	{0x00004000, "ENCRYPTED"},
	{0x00008000, "INTEGRITY_STREAM"},
	{0x00010000, "VIRTUAL"},
	{0x00020000, "NO_SCRUB_DATA"},
	{0x10000000, "DIRECTORY"},
	{0x20000000, "INDEX_VIEW"},
}

func (self FileAttributeFlags) IsSet(flag FileAttributeFlags) bool {
	return self&flag != 0
}

// Known keeps only the bits with a name.
func (self FileAttributeFlags) Known() FileAttributeFlags {
	result := FileAttributeFlags(0)
	for _, n := range fileAttributeNames {
		result |= self & n.flag
	}
	return result
}

// Unknown keeps the bits without a name.
func (self FileAttributeFlags) Unknown() FileAttributeFlags {
	return self &^ self.Known()
}

func (self FileAttributeFlags) Names() []string {
	names := []string{}
	for _, n := range fileAttributeNames {
		if self.IsSet(n.flag) {
			names = append(names, n.name)
		}
	}

	if unknown := self.Unknown(); unknown != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(unknown)))
	}
	return names
}

func (self FileAttributeFlags) String() string {
	return strings.Join(self.Names(), ",")
}

func (self FileAttributeFlags) DebugString() string {
	return fmt.Sprintf("%d (%v)", uint32(self), self.String())
}

type STANDARD_INFORMATION struct {
	create_time        WinFileTime
	file_altered_time  WinFileTime
	mft_altered_time   WinFileTime
	file_accessed_time WinFileTime
	flags              FileAttributeFlags
	max_versions       uint32
	version            uint32
	class_id           uint32

	// NTFS 3.0 and later only, zero otherwise.
	extended      bool
	owner_id      uint32
	security_id   uint32
	quota_charged uint64
	usn           uint64
}

// DecodeSTANDARD_INFORMATION decodes the resident content of a
// $STANDARD_INFORMATION attribute. Content shorter than the NTFS 3.0
// layout leaves the extended fields at zero.
func DecodeSTANDARD_INFORMATION(data []byte) (*STANDARD_INFORMATION, error) {
	if len(data) < STANDARD_INFORMATION_SIZE {
		return nil, newParseError(MalformedContentError, -1, -1,
			"$STANDARD_INFORMATION of %d bytes is too short", len(data))
	}

	fields := &fieldReader{cursor: NewByteCursor(data)}
	self := &STANDARD_INFORMATION{
		create_time:        WinFileTime(fields.u64(0x00)),
		file_altered_time:  WinFileTime(fields.u64(0x08)),
		mft_altered_time:   WinFileTime(fields.u64(0x10)),
		file_accessed_time: WinFileTime(fields.u64(0x18)),
		flags:              FileAttributeFlags(fields.u32(0x20)),
		max_versions:       fields.u32(0x24),
		version:            fields.u32(0x28),
		class_id:           fields.u32(0x2C),
	}

	if len(data) >= STANDARD_INFORMATION_SIZE_V3 {
		self.extended = true
		self.owner_id = fields.u32(0x30)
		self.security_id = fields.u32(0x34)
		self.quota_charged = fields.u64(0x38)
		self.usn = fields.u64(0x40)
	}

	if fields.err != nil {
		return nil, fields.err
	}
	return self, nil
}

func (self *STANDARD_INFORMATION) Create_time() WinFileTime {
	return self.create_time
}

func (self *STANDARD_INFORMATION) File_altered_time() WinFileTime {
	return self.file_altered_time
}

func (self *STANDARD_INFORMATION) Mft_altered_time() WinFileTime {
	return self.mft_altered_time
}

func (self *STANDARD_INFORMATION) File_accessed_time() WinFileTime {
	return self.file_accessed_time
}

func (self *STANDARD_INFORMATION) Flags() FileAttributeFlags {
	return self.flags
}

func (self *STANDARD_INFORMATION) Max_versions() uint32 {
	return self.max_versions
}

func (self *STANDARD_INFORMATION) Version() uint32 {
	return self.version
}

func (self *STANDARD_INFORMATION) Class_id() uint32 {
	return self.class_id
}

// IsExtended is true when the NTFS 3.0 fields were present.
func (self *STANDARD_INFORMATION) IsExtended() bool {
	return self.extended
}

func (self *STANDARD_INFORMATION) Owner_id() uint32 {
	return self.owner_id
}

func (self *STANDARD_INFORMATION) Security_id() uint32 {
	return self.security_id
}

func (self *STANDARD_INFORMATION) Quota_charged() uint64 {
	return self.quota_charged
}

func (self *STANDARD_INFORMATION) Usn() uint64 {
	return self.usn
}

func (self *STANDARD_INFORMATION) Dict() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Created", self.create_time.String()).
		Set("Modified", self.file_altered_time.String()).
		Set("MftModified", self.mft_altered_time.String()).
		Set("Accessed", self.file_accessed_time.String()).
		Set("Flags", self.flags.Names()).
		Set("MaxVersions", self.max_versions).
		Set("Version", self.version).
		Set("ClassId", self.class_id).
		Set("OwnerId", self.owner_id).
		Set("SecurityId", self.security_id).
		Set("QuotaCharged", self.quota_charged).
		Set("Usn", self.usn)
}

func (self *STANDARD_INFORMATION) DebugString() string {
	result := "struct STANDARD_INFORMATION:\n"
	result += fmt.Sprintf("  Create_time: %v\n", self.create_time)
	result += fmt.Sprintf("  File_altered_time: %v\n", self.file_altered_time)
	result += fmt.Sprintf("  Mft_altered_time: %v\n", self.mft_altered_time)
	result += fmt.Sprintf("  File_accessed_time: %v\n", self.file_accessed_time)
	result += fmt.Sprintf("  Flags: %v\n", self.flags.DebugString())
	if self.extended {
		result += fmt.Sprintf("  Owner_id: %#0x\n", self.owner_id)
		result += fmt.Sprintf("  Security_id: %#0x\n", self.security_id)
		result += fmt.Sprintf("  Quota_charged: %#0x\n", self.quota_charged)
		result += fmt.Sprintf("  Usn: %#0x\n", self.usn)
	}
	return result
}
