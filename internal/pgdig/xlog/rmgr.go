package xlog

import "fmt"

// ResourceManagerID identifies the subsystem that owns a WAL record.
type ResourceManagerID uint8

// Built-in resource managers, in rmgrlist.h order.
const (
	RmXLog ResourceManagerID = iota
	RmTransaction
	RmStorage
	RmCLog
	RmDatabase
	RmTablespace
	RmMultiXact
	RmRelMap
	RmStandby
	RmHeap2
	RmHeap
	RmBtree
	RmHash
	RmGin
	RmGist
	RmSequence
	RmSPGist
	RmBRIN
	RmCommitTs
	RmReplicationOrigin
	RmGeneric
	RmLogicalMessage
)

// RmMaxBuiltinID is the highest id in the registry.
const RmMaxBuiltinID = RmLogicalMessage

var resourceManagerNames = [...]string{
	RmXLog:              "XLOG",
	RmTransaction:       "Transaction",
	RmStorage:           "Storage",
	RmCLog:              "CLOG",
	RmDatabase:          "Database",
	RmTablespace:        "Tablespace",
	RmMultiXact:         "MultiXact",
	RmRelMap:            "RelMap",
	RmStandby:           "Standby",
	RmHeap2:             "Heap2",
	RmHeap:              "Heap",
	RmBtree:             "Btree",
	RmHash:              "Hash",
	RmGin:               "Gin",
	RmGist:              "Gist",
	RmSequence:          "Sequence",
	RmSPGist:            "SPGist",
	RmBRIN:              "BRIN",
	RmCommitTs:          "CommitTs",
	RmReplicationOrigin: "ReplicationOrigin",
	RmGeneric:           "Generic",
	RmLogicalMessage:    "LogicalMessage",
}

// LookupResourceManager returns the registered name of id.
func LookupResourceManager(id ResourceManagerID) (string, error) {
	if id > RmMaxBuiltinID {
		de := newDecodeError(KindUnknownResourceManager, "xl_rmid", 0, 0, 0)
		de.Value = uint64(id)
		de.Err = fmt.Errorf("%w: %d", ErrUnknownResourceManager, id)
		return "", de
	}
	return resourceManagerNames[id], nil
}

// IsHeap reports whether block references of records owned by id are decoded.
func IsHeap(id ResourceManagerID) bool {
	return id == RmHeap
}

func (id ResourceManagerID) String() string {
	name, err := LookupResourceManager(id)
	if err != nil {
		return fmt.Sprintf("Unknown(%d)", uint8(id))
	}
	return name
}

// ResourceManagers returns every registered id in order.
func ResourceManagers() []ResourceManagerID {
	ids := make([]ResourceManagerID, 0, len(resourceManagerNames))
	for i := range resourceManagerNames {
		ids = append(ids, ResourceManagerID(i)) //nolint:gosec
	}
	return ids
}

// Heap record types, stored in the upper nibble of xl_info.
const (
	HeapInsert    uint8 = 0x00
	HeapDelete    uint8 = 0x10
	HeapUpdate    uint8 = 0x20
	HeapTruncate  uint8 = 0x30
	HeapHotUpdate uint8 = 0x40
	HeapConfirm   uint8 = 0x50
	HeapLock      uint8 = 0x60
	HeapInplace   uint8 = 0x70
	HeapOpMask    uint8 = 0x70
	HeapInitPage  uint8 = 0x80
)

// XLOG record types.
const (
	XLogCheckpointShutdown uint8 = 0x00
	XLogCheckpointOnline   uint8 = 0x10
	XLogNoop               uint8 = 0x20
	XLogNextOID            uint8 = 0x30
	XLogSwitch             uint8 = 0x40
	XLogBackupEnd          uint8 = 0x50
	XLogParameterChange    uint8 = 0x60
	XLogRestorePoint       uint8 = 0x70
	XLogFPWChange          uint8 = 0x80
	XLogEndOfRecovery      uint8 = 0x90
	XLogFPIForHint         uint8 = 0xA0
	XLogFPI                uint8 = 0xB0
)

var heapRecordTypes = map[uint8]string{
	HeapInsert:    "INSERT",
	HeapDelete:    "DELETE",
	HeapUpdate:    "UPDATE",
	HeapTruncate:  "TRUNCATE",
	HeapHotUpdate: "HOT_UPDATE",
	HeapConfirm:   "CONFIRM",
	HeapLock:      "LOCK",
	HeapInplace:   "INPLACE",
}

var xlogRecordTypes = map[uint8]string{
	XLogCheckpointShutdown: "CHECKPOINT_SHUTDOWN",
	XLogCheckpointOnline:   "CHECKPOINT_ONLINE",
	XLogNoop:               "NOOP",
	XLogNextOID:            "NEXTOID",
	XLogSwitch:             "SWITCH",
	XLogBackupEnd:          "BACKUP_END",
	XLogParameterChange:    "PARAMETER_CHANGE",
	XLogRestorePoint:       "RESTORE_POINT",
	XLogFPWChange:          "FPW_CHANGE",
	XLogEndOfRecovery:      "END_OF_RECOVERY",
	XLogFPIForHint:         "FPI_FOR_HINT",
	XLogFPI:                "FPI",
}

// RecordTypeName names the record sub-type carried in the upper nibble of info.
// Only Heap and XLOG are known; anything else is "UNKNOWN".
func RecordTypeName(id ResourceManagerID, info uint8) string {
	switch id {
	case RmHeap:
		name, ok := heapRecordTypes[info&HeapOpMask]
		if !ok {
			return "UNKNOWN"
		}
		if info&HeapInitPage != 0 {
			name += "+INIT"
		}
		return name
	case RmXLog:
		if name, ok := xlogRecordTypes[info&XLRRmgrInfoMask]; ok {
			return name
		}
	}
	return "UNKNOWN"
}
