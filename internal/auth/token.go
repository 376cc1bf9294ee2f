package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/storefront/internal/model"
)

// TokenConfig はセッショントークンの設定。
type TokenConfig struct {
	Secret      string
	MaxAge      time.Duration // トークンの有効期間。スライディング延長の上限。
	IdleTimeout time.Duration // 最終発行からのアイドルタイムアウト。
}

// TokenManager はクレームセットの署名付きトークンへの変換と検証を行う。
// トークンはHMAC-SHA256で署名され、クライアント保持のCookieとして運ばれる。
// サーバー側にセッション状態は持たない。
type TokenManager struct {
	config TokenConfig
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(config TokenConfig) *TokenManager {
	return &TokenManager{config: config}
}

// sessionClaims はトークンに埋め込むクレームセットのワイヤ形式。
// Subjectにユーザーの数値IDを格納する。
type sessionClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Issue はユーザーのクレームセットから署名付きトークンを発行する。
func (m *TokenManager) Issue(claims model.Claims) (string, error) {
	now := time.Now()
	c := sessionClaims{
		Username: claims.Username,
		Email:    claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.MaxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームセットと発行時刻を返す。
// 署名不正・期限切れ・アイドルタイムアウト超過の場合はエラーを返す。
func (m *TokenManager) Verify(tokenString string) (*model.Claims, time.Time, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse session token: %w", err)
	}

	c, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, time.Time{}, fmt.Errorf("invalid session token")
	}

	if c.IssuedAt == nil {
		return nil, time.Time{}, fmt.Errorf("session token missing issued-at")
	}
	issuedAt := c.IssuedAt.Time

	// アイドルタイムアウト: 最終発行からIdleTimeoutを超えたトークンは無効。
	// スライディング再発行により、アクティブなセッションはここに達しない。
	if m.config.IdleTimeout > 0 && time.Since(issuedAt) > m.config.IdleTimeout {
		return nil, time.Time{}, fmt.Errorf("session idle timeout exceeded")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid subject in session token: %w", err)
	}

	return &model.Claims{
		UserID:   userID,
		Username: c.Username,
		Email:    c.Email,
	}, issuedAt, nil
}

// ShouldRefresh は発行から再発行間隔を超えている場合にtrueを返す。
// ミドルウェアがこの判定でトークンを再発行し、スライディング延長を実現する。
// 再発行間隔は有効期間とアイドルタイムアウトの短い方の半分。
// アクティブなユーザーのトークンは常にこの間隔以内の新しさに保たれるため、
// アイドルタイムアウトに達するのは実際に操作が途絶えた場合だけとなる。
func (m *TokenManager) ShouldRefresh(issuedAt time.Time) bool {
	interval := m.config.MaxAge
	if m.config.IdleTimeout > 0 && m.config.IdleTimeout < interval {
		interval = m.config.IdleTimeout
	}
	return time.Since(issuedAt) > interval/2
}
