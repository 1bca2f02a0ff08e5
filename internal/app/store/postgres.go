package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaychat/internal/app/db"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps the given pool as a Store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const userColumns = `user_id, user_name, password_hash, failed_login_attempts,
	account_locked, account_locked_until, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.PasswordHash, &u.FailedLoginAttempts,
		&u.AccountLocked, &u.AccountLockedUntil, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, name, passwordHash string) (*User, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (user_name, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns,
		name, passwordHash,
	)

	u, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (p *Postgres) GetUserByName(ctx context.Context, name string) (*User, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_name = $1`, name)
	return scanUser(row)
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*User, error) {
	if !validUUID(id) {
		return nil, ErrNotFound
	}

	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
	return scanUser(row)
}

func (p *Postgres) UpdateUserLoginState(ctx context.Context, u *User) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = $2,
		    account_locked = $3,
		    account_locked_until = $4,
		    last_login = $5,
		    updated_at = now()
		WHERE user_id = $1`,
		u.ID, u.FailedLoginAttempts, u.AccountLocked, u.AccountLockedUntil, u.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("update login state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const roomColumns = `id, name, visibility, created_by, members, last_activity, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	var rawMembers []byte

	err := row.Scan(
		&r.ID, &r.Name, &r.Visibility, &r.CreatedBy, &rawMembers,
		&r.LastActivity, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(rawMembers, &r.Members); err != nil {
		return nil, fmt.Errorf("decode room members: %w", err)
	}
	if r.Members == nil {
		r.Members = []string{}
	}

	return &r, nil
}

func (p *Postgres) CreateRoom(ctx context.Context, name string, visibility Visibility, creatorID string) (*Room, error) {
	members, err := json.Marshal([]string{creatorID})
	if err != nil {
		return nil, fmt.Errorf("encode room members: %w", err)
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO rooms (name, visibility, created_by, members, last_activity)
		VALUES ($1, $2, $3, $4, now())
		RETURNING `+roomColumns,
		name, visibility, creatorID, members,
	)

	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (p *Postgres) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		rooms = append(rooms, *room)
	}

	return rooms, rows.Err()
}

func (p *Postgres) GetRoom(ctx context.Context, id string) (*Room, error) {
	if !validUUID(id) {
		return nil, ErrNotFound
	}

	row := p.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	return scanRoom(row)
}

func (p *Postgres) AddRoomMember(ctx context.Context, roomID, userID string) (*Room, error) {
	return p.mutateMembers(ctx, roomID, true, func(members []string) ([]string, bool) {
		return appendMember(members, userID)
	})
}

func (p *Postgres) RemoveRoomMember(ctx context.Context, roomID, userID string) (*Room, error) {
	return p.mutateMembers(ctx, roomID, false, func(members []string) ([]string, bool) {
		return removeMember(members, userID)
	})
}

// mutateMembers applies fn to the room's member set under a row lock, so
// concurrent joins and leaves never lose updates. touchActivity refreshes
// last_activity when the set changed.
func (p *Postgres) mutateMembers(ctx context.Context, roomID string, touchActivity bool, fn func([]string) ([]string, bool)) (*Room, error) {
	if !validUUID(roomID) {
		return nil, ErrNotFound
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin member update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, roomID)
	room, err := scanRoom(row)
	if err != nil {
		return nil, err
	}

	members, changed := fn(room.Members)
	if !changed {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit member update: %w", err)
		}
		return room, nil
	}

	encoded, err := json.Marshal(members)
	if err != nil {
		return nil, fmt.Errorf("encode room members: %w", err)
	}

	query := `UPDATE rooms SET members = $2, updated_at = now() WHERE id = $1 RETURNING ` + roomColumns
	if touchActivity {
		query = `UPDATE rooms SET members = $2, last_activity = now(), updated_at = now() WHERE id = $1 RETURNING ` + roomColumns
	}

	row = tx.QueryRow(ctx, query, roomID, encoded)
	room, err = scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("update room members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit member update: %w", err)
	}

	return room, nil
}

const messageColumns = `id, room_id, sender_id, content, kind, status, metadata, created_at, updated_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	var rawMeta []byte

	err := row.Scan(
		&m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.Kind, &m.Status,
		&rawMeta, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(rawMeta) > 0 {
		var meta MessageMetadata
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return nil, fmt.Errorf("decode message metadata: %w", err)
		}
		m.Metadata = &meta
	}

	return &m, nil
}

func (p *Postgres) AppendMessage(ctx context.Context, in MessageInput) (*Message, error) {
	if !validUUID(in.RoomID) {
		return nil, ErrNotFound
	}

	// The room is validated inside the same transaction as the insert, so a
	// message can never land in a room that was never created.
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin message append: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, in.RoomID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check room: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	var encodedMeta []byte
	if in.Metadata != nil {
		encodedMeta, err = json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode message metadata: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO messages (room_id, sender_id, content, kind, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		in.RoomID, in.SenderID, in.Content, in.Kind, StatusSent, encodedMeta,
	)

	msg, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit message append: %w", err)
	}

	return msg, nil
}

func (p *Postgres) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	if !validUUID(roomID) {
		return nil, ErrNotFound
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		messages = append(messages, *msg)
	}

	return messages, rows.Err()
}

func (p *Postgres) GetMessage(ctx context.Context, id string) (*Message, error) {
	if !validUUID(id) {
		return nil, ErrNotFound
	}

	row := p.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	return scanMessage(row)
}

func (p *Postgres) MarkMessageRead(ctx context.Context, messageID, readerID string) (*Message, error) {
	if !validUUID(messageID) || !validUUID(readerID) {
		return nil, ErrNotFound
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin mark read: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1 FOR UPDATE`, messageID)
	msg, err := scanMessage(row)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark message read: %w", err)
	}

	// The transition only moves forward; a sender reading their own message
	// or a repeated read changes nothing and returns the current row.
	if msg.SenderID == readerID || !msg.Status.Before(StatusRead) {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit mark read: %w", err)
		}
		return msg, nil
	}

	row = tx.QueryRow(ctx, `
		UPDATE messages
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+messageColumns,
		messageID, StatusRead,
	)

	msg, err = scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit mark read: %w", err)
	}

	return msg, nil
}

// validUUID filters malformed ids before they reach uuid-typed columns, which
// would otherwise surface as encoding errors instead of not-found.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
