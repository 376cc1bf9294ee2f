package model

// Claims はセッションCookieに埋め込むアイデンティティ情報（クレームセット）を表す。
// サーバー側には永続化せず、サインイン時にUserレコードから毎回再構築する。
type Claims struct {
	UserID   int64
	Username string
	Email    string
}

// ClaimsFromUser はUserレコードからクレームセットを構築する。
func ClaimsFromUser(u *User) Claims {
	return Claims{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
