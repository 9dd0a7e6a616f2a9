// Package postgresdb provides a PostgreSQL-backed implementation of the storage interface
// for persisting and retrieving users and their bookmarks.
// The schema is owned by goose migrations; reads and writes go through gorm.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

const uniqueViolationCode = "23505"

// driverName is the database/sql driver registered by pgx/v5/stdlib.
var driverName = "pgx"

// PostgresDB is the gorm-backed persistence gateway.
type PostgresDB struct {
	database          *sql.DB
	orm               *gorm.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every table before migration.
// It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
// The connection pool is closed again if any setup step fails.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (_ *PostgresDB, err error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open(driverName, databaseDSN)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = database.Close()
		}
	}()

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
				err,
			)
	}

	result.orm, err = gorm.Open(
		postgres.New(postgres.Config{Conn: database}),
		&gorm.Config{
			TranslateError: true,
			Logger:         newGormLogger(),
			NowFunc:        func() time.Time { return time.Now().UTC() },
		},
	)
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `gorm.Open()` calling: %w",
				err,
			)
	}

	return result, nil
}

// CreateUser inserts a new user and fills in its generated ID and timestamps.
// A duplicate email yields storage.ErrDuplicateEmail.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) error {
	err := db.orm.WithContext(ctx).Create(usr).Error
	if isUniqueViolation(err) {
		return storage.ErrDuplicateEmail
	}

	return err
}

// GetUserByEmail fetches a user by email or returns storage.ErrNotFound.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var usr user.User
	err := db.orm.WithContext(ctx).Where("email = ?", email).Take(&usr).Error
	if err != nil {
		return nil, translateNotFound(err)
	}

	return &usr, nil
}

// GetUserByID fetches a user by ID or returns storage.ErrNotFound.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID int64) (*user.User, error) {
	var usr user.User
	err := db.orm.WithContext(ctx).Where("id = ?", userID).Take(&usr).Error
	if err != nil {
		return nil, translateNotFound(err)
	}

	return &usr, nil
}

// CreateBookmark inserts a bookmark and fills in its generated ID and timestamps.
func (db *PostgresDB) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	return db.orm.WithContext(ctx).Create(bookmark).Error
}

// GetUserBookmarks returns every bookmark of the user in ascending ID order.
func (db *PostgresDB) GetUserBookmarks(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	bookmarks := []models.Bookmark{}
	err := db.orm.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&bookmarks).
		Error
	if err != nil {
		return nil, err
	}

	return bookmarks, nil
}

// GetUserBookmark fetches one bookmark scoped to its owner in a single query.
func (db *PostgresDB) GetUserBookmark(ctx context.Context, userID, bookmarkID int64) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	err := db.orm.WithContext(ctx).
		Where("id = ? AND user_id = ?", bookmarkID, userID).
		Take(&bookmark).
		Error
	if err != nil {
		return nil, translateNotFound(err)
	}

	return &bookmark, nil
}

// UpdateUserBookmark runs one conditional UPDATE ... RETURNING filtered by
// both the bookmark ID and the owner ID.
func (db *PostgresDB) UpdateUserBookmark(
	ctx context.Context,
	userID,
	bookmarkID int64,
	patch models.BookmarkPatch,
) (*models.Bookmark, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description.Set {
		if patch.Description.Value != nil {
			updates["description"] = *patch.Description.Value
		} else {
			updates["description"] = nil
		}
	}
	if patch.Link != nil {
		updates["link"] = *patch.Link
	}

	var bookmark models.Bookmark
	result := db.orm.WithContext(ctx).
		Model(&bookmark).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", bookmarkID, userID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}

	return &bookmark, nil
}

// DeleteUserBookmark runs one conditional DELETE filtered by both the
// bookmark ID and the owner ID.
func (db *PostgresDB) DeleteUserBookmark(ctx context.Context, userID, bookmarkID int64) error {
	result := db.orm.WithContext(ctx).
		Where("id = ? AND user_id = ?", bookmarkID, userID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	var count int64
	err := db.orm.WithContext(ctx).Model(&user.User{}).Count(&count).Error

	return count, err
}

func (db *PostgresDB) GetNumberOfBookmarks(ctx context.Context) (int64, error) {
	var count int64
	err := db.orm.WithContext(ctx).Model(&models.Bookmark{}).Count(&count).Error

	return count, err
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}

	return err
}
