package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost はパスワードハッシュのコストパラメータ。
const bcryptCost = 12

// HashPassword はbcryptでパスワードをハッシュ化する。
// 平文パスワードは保存しない。ソルトはbcryptがハッシュに内包する。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword は平文パスワードを保存済みハッシュと照合する。
// 全ログイン経路で唯一の検証手段として使用すること。
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
