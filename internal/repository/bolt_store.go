package repository

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/yukikurage/task-collab/internal/models"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketUsers         = []byte("users")
	bucketUsersByEmail  = []byte("users_by_email")
	bucketTasks         = []byte("tasks")
	bucketCollaborators = []byte("collaborators")
	bucketCollabsByUser = []byte("collaborators_by_user")
	allBuckets          = [][]byte{bucketUsers, bucketUsersByEmail, bucketTasks, bucketCollaborators, bucketCollabsByUser}
)

type userDocument struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

type taskDocument struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     uint64    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type collaboratorDocument struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BoltStore keeps users, tasks and collaborations as JSON documents in bbolt.
// Collaborations are keyed by task|user with a user|task index, so the pair is
// unique by construction. Every operation runs in a single bbolt transaction.
type BoltStore struct {
	db  *bolt.DB
	log *zap.Logger
}

// NewBoltStore creates a Store on an open bbolt database
func NewBoltStore(db *bolt.DB, log *zap.Logger) *BoltStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &BoltStore{db: db, log: log}
}

// Initialize creates the buckets if they are missing
func (s *BoltStore) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db == nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, bolt.ErrDatabaseNotOpen)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Close closes the bbolt database
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateUser creates a new user
func (s *BoltStore) CreateUser(ctx context.Context, name, email, password string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		byEmail := tx.Bucket(bucketUsersByEmail)
		if byEmail.Get([]byte(email)) != nil {
			return ErrDuplicateEmail
		}

		users := tx.Bucket(bucketUsers)
		seq, err := users.NextSequence()
		if err != nil {
			return err
		}
		id = seq

		doc := userDocument{
			ID:        id,
			Name:      name,
			Email:     email,
			Password:  password,
			CreatedAt: time.Now(),
		}
		if err := putJSON(users, itob(id), doc); err != nil {
			return err
		}
		return byEmail.Put([]byte(email), itob(id))
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return 0, err
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.log.Debug("user created", zap.Uint64("user_id", id))
	return id, nil
}

// FindUserByEmail finds a user by email
func (s *BoltStore) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var user *models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		idBytes := tx.Bucket(bucketUsersByEmail).Get([]byte(email))
		if idBytes == nil {
			return nil
		}
		doc, err := getUser(tx, btoi(idBytes))
		if err != nil {
			return err
		}
		u := doc.toModel()
		user = &u
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("find user by email: %w", err)
	}
	return user, user != nil, nil
}

// FindUserByID finds a user by ID
func (s *BoltStore) FindUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		doc, err := getUser(tx, id)
		if err != nil {
			return err
		}
		user = doc.toModel()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// ListAllUsers lists every user without credentials
func (s *BoltStore) ListAllUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := []models.User{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, v []byte) error {
			var doc userDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			users = append(users, publicUser(doc.toModel()))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateTask creates a new task
func (s *BoltStore) CreateTask(ctx context.Context, title, description string, ownerID uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketUsers).Get(itob(ownerID)) == nil {
			return ErrUserNotFound
		}

		tasks := tx.Bucket(bucketTasks)
		seq, err := tasks.NextSequence()
		if err != nil {
			return err
		}
		id = seq

		now := time.Now()
		return putJSON(tasks, itob(id), taskDocument{
			ID:          id,
			Title:       title,
			Description: description,
			OwnerID:     ownerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("create task: %w", err)
	}

	s.log.Debug("task created", zap.Uint64("task_id", id), zap.Uint64("owner_id", ownerID))
	return id, nil
}

// FindTaskByID finds a task by ID with owner fields
func (s *BoltStore) FindTaskByID(ctx context.Context, id uint64) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		doc, err := getTask(tx, id)
		if err != nil {
			return err
		}
		task = joinOwner(tx, doc)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// ListTasksForUser lists tasks owned by or shared with the user
func (s *BoltStore) ListTasksForUser(ctx context.Context, userID uint64) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	err := s.db.View(func(tx *bolt.Tx) error {
		shared := make(map[uint64]struct{})
		prefix := itob(userID)
		c := tx.Bucket(bucketCollabsByUser).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			shared[btoi(k[8:])] = struct{}{}
		}

		return tx.Bucket(bucketTasks).ForEach(func(_, v []byte) error {
			var doc taskDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			if _, ok := shared[doc.ID]; ok || doc.OwnerID == userID {
				tasks = append(tasks, joinOwner(tx, doc))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	slices.SortFunc(tasks, compareTasks)
	return tasks, nil
}

// UpdateTask replaces the mutable fields of a task
func (s *BoltStore) UpdateTask(ctx context.Context, id uint64, title, description string, completed bool) error {
	return s.modifyTask(ctx, id, func(doc *taskDocument) {
		doc.Title = title
		doc.Description = description
		doc.Completed = completed
	})
}

// SetTaskCompletion updates the completed flag
func (s *BoltStore) SetTaskCompletion(ctx context.Context, id uint64, completed bool) error {
	return s.modifyTask(ctx, id, func(doc *taskDocument) {
		doc.Completed = completed
	})
}

// modifyTask applies a change to one task document in a single update
func (s *BoltStore) modifyTask(ctx context.Context, id uint64, apply func(*taskDocument)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		doc, err := getTask(tx, id)
		if err != nil {
			return err
		}
		apply(&doc)
		doc.UpdatedAt = time.Now()
		return putJSON(tx.Bucket(bucketTasks), itob(id), doc)
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// DeleteTask deletes a task and its collaborator links in one update
func (s *BoltStore) DeleteTask(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		collabs := tx.Bucket(bucketCollaborators)
		byUser := tx.Bucket(bucketCollabsByUser)

		// Collect first; deleting while iterating a bbolt cursor skips keys.
		prefix := itob(id)
		var keys [][]byte
		c := collabs.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}

		for _, k := range keys {
			if err := collabs.Delete(k); err != nil {
				return err
			}
			if err := byUser.Delete(pairKey(btoi(k[8:]), id)); err != nil {
				return err
			}
		}

		return tx.Bucket(bucketTasks).Delete(itob(id))
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.log.Debug("task deleted", zap.Uint64("task_id", id))
	return nil
}

// ShareTask adds the user with the given email as a collaborator
func (s *BoltStore) ShareTask(ctx context.Context, taskID uint64, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		idBytes := tx.Bucket(bucketUsersByEmail).Get([]byte(email))
		if idBytes == nil {
			return ErrUserNotFound
		}
		userID := btoi(idBytes)

		if tx.Bucket(bucketTasks).Get(itob(taskID)) == nil {
			return ErrTaskNotFound
		}

		collabs := tx.Bucket(bucketCollaborators)
		key := pairKey(taskID, userID)
		if collabs.Get(key) != nil {
			return nil
		}

		seq, err := collabs.NextSequence()
		if err != nil {
			return err
		}
		doc := collaboratorDocument{
			ID:        seq,
			TaskID:    taskID,
			UserID:    userID,
			CreatedAt: time.Now(),
		}
		if err := putJSON(collabs, key, doc); err != nil {
			return err
		}
		return tx.Bucket(bucketCollabsByUser).Put(pairKey(userID, taskID), itob(seq))
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("share task: %w", err)
	}

	s.log.Debug("task shared", zap.Uint64("task_id", taskID))
	return nil
}

// UnshareTask removes a collaborator from a task
func (s *BoltStore) UnshareTask(ctx context.Context, taskID, userID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketCollaborators).Delete(pairKey(taskID, userID)); err != nil {
			return err
		}
		return tx.Bucket(bucketCollabsByUser).Delete(pairKey(userID, taskID))
	})
	if err != nil {
		return fmt.Errorf("unshare task: %w", err)
	}
	return nil
}

// ListCollaborators lists the users a task is shared with
func (s *BoltStore) ListCollaborators(ctx context.Context, taskID uint64) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := []models.User{}
	err := s.db.View(func(tx *bolt.Tx) error {
		var links []collaboratorDocument
		prefix := itob(taskID)
		c := tx.Bucket(bucketCollaborators).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var doc collaboratorDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			links = append(links, doc)
		}

		slices.SortFunc(links, func(a, b collaboratorDocument) int {
			return compareIDs(a.ID, b.ID)
		})

		for _, link := range links {
			doc, err := getUser(tx, link.UserID)
			if err != nil {
				return err
			}
			users = append(users, publicUser(doc.toModel()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	return users, nil
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

func (d taskDocument) toModel() models.Task {
	return models.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// joinOwner fills the owner fields; a missing owner leaves them empty.
func joinOwner(tx *bolt.Tx, doc taskDocument) models.Task {
	task := doc.toModel()
	if owner, err := getUser(tx, doc.OwnerID); err == nil {
		task.OwnerName = owner.Name
		task.OwnerEmail = owner.Email
	}
	return task
}

func getUser(tx *bolt.Tx, id uint64) (userDocument, error) {
	var doc userDocument
	v := tx.Bucket(bucketUsers).Get(itob(id))
	if v == nil {
		return doc, ErrUserNotFound
	}
	err := json.Unmarshal(v, &doc)
	return doc, err
}

func getTask(tx *bolt.Tx, id uint64) (taskDocument, error) {
	var doc taskDocument
	v := tx.Bucket(bucketTasks).Get(itob(id))
	if v == nil {
		return doc, ErrTaskNotFound
	}
	err := json.Unmarshal(v, &doc)
	return doc, err
}

func putJSON(b *bolt.Bucket, key []byte, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, payload)
}

// itob encodes an id big-endian so bbolt's byte ordering matches numeric ordering.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func pairKey(a, b uint64) []byte {
	return append(itob(a), itob(b)...)
}

func compareIDs(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
