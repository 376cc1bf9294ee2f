package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate は一意制約違反を表すセンチネルエラー。
// 事前の存在チェックではなく、このエラーを「既に存在する」の正のシグナルとして扱う。
var ErrDuplicate = errors.New("duplicate key")

// uniqueViolationCode はPostgreSQLの一意制約違反のSQLSTATEコード。
const uniqueViolationCode = "23505"

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
