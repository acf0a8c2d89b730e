package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/util"
	"go.uber.org/zap"
)

const USER_WORKFLOWS string = "USER_WORKFLOWS"
const USERS string = "USERS"

// compareAndSwapScript replaces (or deletes when ARGV[3] is empty) hash field
// ARGV[1] only if its JSON value carries token ARGV[2].
var compareAndSwapScript = rd.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
	return 0
end
local ok, entry = pcall(cjson.decode, cur)
if not ok or entry['token'] ~= ARGV[2] then
	return 0
end
if ARGV[3] == '' then
	redis.call('HDEL', KEYS[1], ARGV[1])
else
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
end
return 1
`)

var _ persistence.UserWorkflowStore = new(redisUserWorkflowDao)

// redisUserWorkflowDao keeps one hash per user: field = template name,
// value = JSON encoded model.RecordEntry.
type redisUserWorkflowDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.RecordEntry]
}

func NewRedisUserWorkflowDao(conf Config) *redisUserWorkflowDao {
	return &redisUserWorkflowDao{
		baseDao:        newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder((*model.RecordEntry).Check),
	}
}

func (d *redisUserWorkflowDao) GetRecord(ctx context.Context, userId string) (*model.UserWorkflowRecord, error) {
	key := d.getNamespaceKey(USER_WORKFLOWS, userId)
	fields, err := d.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in getting user workflows", zap.String("user", userId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	record := model.NewUserWorkflowRecord(userId)
	for field, value := range fields {
		entry, err := d.encoderDecoder.Decode([]byte(value))
		if err != nil {
			logger.Error("corrupt user workflow entry", zap.String("user", userId), zap.String("template", field), zap.Error(err))
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		record.Entries[model.TemplateName(field)] = *entry
	}
	return record, nil
}

func (d *redisUserWorkflowDao) Reserve(ctx context.Context, userId string, template model.TemplateName, entry model.RecordEntry) (bool, error) {
	data, err := d.encoderDecoder.Encode(entry)
	if err != nil {
		return false, err
	}
	// the user is indexed before the entry is written, so a failure never
	// leaves a reservation behind
	if err := d.redisClient.SAdd(ctx, d.getNamespaceKey(USERS), userId).Err(); err != nil {
		logger.Error("error in indexing user", zap.String("user", userId), zap.Error(err))
		return false, persistence.StorageLayerError{Message: err.Error()}
	}
	key := d.getNamespaceKey(USER_WORKFLOWS, userId)
	ok, err := d.redisClient.HSetNX(ctx, key, string(template), data).Result()
	if err != nil {
		logger.Error("error in reserving user workflow", zap.String("user", userId), zap.String("template", string(template)), zap.Error(err))
		return false, persistence.StorageLayerError{Message: err.Error()}
	}
	return ok, nil
}

func (d *redisUserWorkflowDao) CompareAndSwap(ctx context.Context, userId string, template model.TemplateName, expectedToken string, entry *model.RecordEntry) (bool, error) {
	value := ""
	if entry != nil {
		data, err := d.encoderDecoder.Encode(*entry)
		if err != nil {
			return false, err
		}
		value = string(data)
	}
	key := d.getNamespaceKey(USER_WORKFLOWS, userId)
	res, err := compareAndSwapScript.Run(ctx, d.redisClient, []string{key}, string(template), expectedToken, value).Int()
	if err != nil && !errors.Is(err, rd.Nil) {
		logger.Error("error in updating user workflow", zap.String("user", userId), zap.String("template", string(template)), zap.Error(err))
		return false, persistence.StorageLayerError{Message: err.Error()}
	}
	return res == 1, nil
}

func (d *redisUserWorkflowDao) ListUsers(ctx context.Context) ([]string, error) {
	users, err := d.redisClient.SMembers(ctx, d.getNamespaceKey(USERS)).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return users, nil
}
