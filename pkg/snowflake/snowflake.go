package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/sonyflake/v2"
)

var (
	node   *sonyflake.Sonyflake
	nodeMu sync.RWMutex
)

// ErrNotInitialized 未初始化时调用 NextID
var ErrNotInitialized = errors.New("snowflake is not initialized")

// Init 按起始日期（YYYY-MM-DD）和机器号初始化对比ID生成器
func Init(startTime string, machineID int) error {
	st, err := time.Parse(time.DateOnly, startTime)
	if err != nil {
		return fmt.Errorf("parse start time failed, err:%w", err)
	}
	settings := sonyflake.Settings{
		StartTime: st,
		MachineID: func() (int, error) {
			return machineID, nil
		},
		CheckMachineID: func(int) bool { return true },
	}
	sf, err := sonyflake.New(settings)
	if err != nil {
		return fmt.Errorf("init sonyflake failed, err:%w", err)
	}

	nodeMu.Lock()
	node = sf
	nodeMu.Unlock()
	return nil
}

// NextID 生成下一个ID
func NextID() (int64, error) {
	nodeMu.RLock()
	defer nodeMu.RUnlock()
	if node == nil {
		return 0, ErrNotInitialized
	}
	return node.NextID()
}
