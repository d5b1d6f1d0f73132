package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrConflictRetriesExhausted 乐观锁冲突重试次数用尽
var ErrConflictRetriesExhausted = errors.New("操作冲突过多，请稍后重试")
