package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"aws-console-lab/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type actionHandler func(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error)

// actionHandlers é a tabela fechada ação → mutação no store de
// recursos. Ações desconhecidas são aceites como no-op.
var actionHandlers = map[string]actionHandler{
	// EC2
	ActionClickFinalLaunch: handleLaunchInstance,
	"TERMINATE_INSTANCE":   handleTerminateInstance,
	"STOP_INSTANCE":        handleStopInstance,
	"START_INSTANCE":       handleStartInstance,
	"REBOOT_INSTANCE":      handleRebootInstance,

	// S3
	"CREATE_BUCKET":     handleCreateBucket,
	"UPLOAD_OBJECT":     handleUploadObject,
	"DELETE_OBJECT":     handleDeleteObject,
	"DELETE_BUCKET":     handleDeleteBucket,
	"TOGGLE_VERSIONING": handleToggleVersioning,

	// Secrets Manager
	"CREATE_SECRET": handleCreateSecret,
	"DELETE_SECRET": handleDeleteSecret,

	// CloudWatch
	"CREATE_LOG_GROUP": handleCreateLogGroup,
	"DELETE_LOG_GROUP": handleDeleteLogGroup,

	// IAM
	"CREATE_IAM_USER":   handleCreateIAMUser,
	"DELETE_IAM_USER":   handleDeleteIAMUser,
	"CREATE_IAM_ROLE":   handleCreateIAMRole,
	"DELETE_IAM_ROLE":   handleDeleteIAMRole,
	"CREATE_IAM_POLICY": handleCreateIAMPolicy,
	"DELETE_IAM_POLICY": handleDeleteIAMPolicy,
	"CREATE_IAM_GROUP":  handleCreateIAMGroup,
	"DELETE_IAM_GROUP":  handleDeleteIAMGroup,

	// Networking
	"CREATE_VPC":                  handleCreateVPC,
	"DELETE_VPC":                  handleDeleteVPC,
	"CREATE_SUBNET":               handleCreateSubnet,
	"DELETE_SUBNET":               handleDeleteSubnet,
	"CREATE_SECURITY_GROUP":       handleCreateSecurityGroup,
	"DELETE_SECURITY_GROUP":       handleDeleteSecurityGroup,
	"UPDATE_SECURITY_GROUP_RULES": handleUpdateSecurityGroupRules,

	// EBS
	"CREATE_VOLUME": handleCreateVolume,
	"DELETE_VOLUME": handleDeleteVolume,
	"ATTACH_VOLUME": handleAttachVolume,
}

func (s *SimulationService) dispatchAction(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	handler, ok := actionHandlers[req.Action]
	if !ok {
		// Ações puramente de UI (cliques, navegação) não mutam nada.
		return &ActionResult{Success: true, Message: "Action completed."}, nil
	}
	return handler(ctx, s, req)
}

// --- EC2 ---

func handleLaunchInstance(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	state := datatypes.JSONMap{
		"instanceId":   newResourceID("i-"),
		"name":         payloadString(req.Payload, "name", "instanceName"),
		"instanceType": payloadStringDefault(req.Payload, "t2.micro", "instanceType"),
		"ami":          payloadStringDefault(req.Payload, "ami-0abcdef1234567890", "ami"),
		"status":       "running",
		"launchTime":   time.Now().UTC().Format(time.RFC3339),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeEC2Instance, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "EC2 instance launched successfully.", Resource: res}, nil
}

func handleTerminateInstance(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	// resourceId é o caminho normal; instanceId embebido no estado é o
	// fallback legacy.
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeEC2Instance,
		"Instance not found.", "Instance terminated.", "instanceId")
}

func handleStopInstance(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.patchInstanceStatus(ctx, req, "stopped", "Instance stopped.")
}

func handleStartInstance(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.patchInstanceStatus(ctx, req, "running", "Instance started.")
}

func handleRebootInstance(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	// A consola real também não muda nada de visível num reboot.
	return &ActionResult{Success: true, Message: "Instance is rebooting."}, nil
}

func (s *SimulationService) patchInstanceStatus(ctx context.Context, req ActionRequest, status, okMsg string) (*ActionResult, error) {
	res, err := s.locateResource(ctx, req, domain.ResourceTypeEC2Instance, "instanceId")
	if err != nil {
		return nil, err
	}
	if res == nil {
		return failResult("Instance not found."), nil
	}
	res.State["status"] = status
	if err := s.repo.UpdateResourceState(ctx, res.ID, res.State); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: okMsg, Resource: res}, nil
}

// --- S3 ---

func handleCreateBucket(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	name := payloadString(req.Payload, "bucketName", "name")
	if name == "" {
		return failResult("Bucket name is required."), nil
	}

	// Unicidade global como no S3 real: o filtro não leva userId.
	// Check-then-act sem lock: aceitável com a concorrência esperada.
	existing, err := s.repo.FindResourceByState(ctx,
		domain.ResourceFilter{ResourceType: domain.ResourceTypeS3Bucket}, "bucketName", name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return failResult("Bucket name already exists."), nil
	}

	state := datatypes.JSONMap{
		"bucketName": name,
		"region":     payloadStringDefault(req.Payload, "us-east-1", "region"),
		"versioning": "Suspended",
		"objects":    []interface{}{},
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeS3Bucket, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Bucket created successfully.", Resource: res}, nil
}

func handleUploadObject(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	bucket, err := s.locateResource(ctx, req, domain.ResourceTypeS3Bucket, "bucketName")
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return failResult("Bucket not found."), nil
	}

	objects, _ := bucket.State["objects"].([]interface{})
	objects = append(objects, map[string]interface{}{
		"key":          payloadString(req.Payload, "key", "objectKey", "fileName"),
		"size":         payloadNumber(req.Payload, "size"),
		"lastModified": time.Now().UTC().Format(time.RFC3339),
	})
	bucket.State["objects"] = objects

	if err := s.repo.UpdateResourceState(ctx, bucket.ID, bucket.State); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Object uploaded.", Resource: bucket}, nil
}

func handleDeleteObject(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	bucket, err := s.locateResource(ctx, req, domain.ResourceTypeS3Bucket, "bucketName")
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return failResult("Bucket not found."), nil
	}

	key := payloadString(req.Payload, "key", "objectKey")
	objects, _ := bucket.State["objects"].([]interface{})
	kept := make([]interface{}, 0, len(objects))
	for _, raw := range objects {
		obj, _ := raw.(map[string]interface{})
		if obj != nil && obj["key"] == key {
			continue
		}
		kept = append(kept, raw)
	}
	bucket.State["objects"] = kept

	if err := s.repo.UpdateResourceState(ctx, bucket.ID, bucket.State); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Object deleted.", Resource: bucket}, nil
}

func handleDeleteBucket(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeS3Bucket,
		"Bucket not found.", "Bucket deleted.", "bucketName", "name")
}

func handleToggleVersioning(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	bucket, err := s.locateResource(ctx, req, domain.ResourceTypeS3Bucket, "bucketName")
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return failResult("Bucket not found."), nil
	}

	next := "Enabled"
	if bucket.StateString("versioning") == "Enabled" {
		next = "Suspended"
	}
	bucket.State["versioning"] = next

	if err := s.repo.UpdateResourceState(ctx, bucket.ID, bucket.State); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: fmt.Sprintf("Bucket versioning %s.", next), Resource: bucket}, nil
}

// --- Secrets Manager ---

func handleCreateSecret(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	name := payloadStringDefault(req.Payload, "my-secret", "name", "secretName")
	state := datatypes.JSONMap{
		"name":        name,
		"arn":         "arn:aws:secretsmanager:us-east-1:123456789012:secret:" + name,
		"description": payloadString(req.Payload, "description"),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeSecret, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Secret created.", Resource: res}, nil
}

func handleDeleteSecret(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeSecret,
		"Secret not found.", "Secret deleted.", "name", "secretName")
}

// --- CloudWatch ---

func handleCreateLogGroup(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	state := datatypes.JSONMap{
		"logGroupName":  payloadStringDefault(req.Payload, "/aws/lab/log-group", "logGroupName", "name"),
		"retentionDays": payloadNumber(req.Payload, "retentionDays"),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeLogGroup, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Log group created.", Resource: res}, nil
}

func handleDeleteLogGroup(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeLogGroup,
		"Log group not found.", "Log group deleted.", "logGroupName", "name")
}

// --- IAM ---

func handleCreateIAMUser(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	name := payloadStringDefault(req.Payload, "lab-user", "userName", "name")
	state := datatypes.JSONMap{
		"userName":   name,
		"arn":        "arn:aws:iam::123456789012:user/" + name,
		"createDate": time.Now().UTC().Format(time.RFC3339),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeIAMUser, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "IAM user created.", Resource: res}, nil
}

func handleDeleteIAMUser(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeIAMUser,
		"IAM user not found.", "IAM user deleted.", "userName", "name")
}

func handleCreateIAMRole(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	name := payloadStringDefault(req.Payload, "lab-role", "roleName", "name")
	state := datatypes.JSONMap{
		"roleName":    name,
		"arn":         "arn:aws:iam::123456789012:role/" + name,
		"trustPolicy": payloadString(req.Payload, "trustPolicy"),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeIAMRole, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "IAM role created.", Resource: res}, nil
}

func handleDeleteIAMRole(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeIAMRole,
		"IAM role not found.", "IAM role deleted.", "roleName", "name")
}

func handleCreateIAMPolicy(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	name := payloadStringDefault(req.Payload, "lab-policy", "policyName", "name")
	state := datatypes.JSONMap{
		"policyName": name,
		"arn":        "arn:aws:iam::123456789012:policy/" + name,
		"document":   req.Payload["document"],
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeIAMPolicy, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "IAM policy created.", Resource: res}, nil
}

func handleDeleteIAMPolicy(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeIAMPolicy,
		"IAM policy not found.", "IAM policy deleted.", "policyName", "name")
}

func handleCreateIAMGroup(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	name := payloadStringDefault(req.Payload, "lab-group", "groupName", "name")
	state := datatypes.JSONMap{
		"groupName": name,
		"arn":       "arn:aws:iam::123456789012:group/" + name,
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeIAMGroup, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "IAM group created.", Resource: res}, nil
}

func handleDeleteIAMGroup(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeIAMGroup,
		"IAM group not found.", "IAM group deleted.", "groupName", "name")
}

// --- Networking ---

func handleCreateVPC(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	state := datatypes.JSONMap{
		"vpcId":     newResourceID("vpc-"),
		"name":      payloadString(req.Payload, "name"),
		"cidrBlock": payloadStringDefault(req.Payload, "10.0.0.0/16", "cidrBlock"),
		"state":     "available",
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeVPC, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "VPC created.", Resource: res}, nil
}

func handleDeleteVPC(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	// Sem cascade para subnets: simplificação deliberada do modelo.
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeVPC,
		"VPC not found.", "VPC deleted.", "vpcId", "name")
}

func handleCreateSubnet(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	state := datatypes.JSONMap{
		"subnetId":         newResourceID("subnet-"),
		"vpcId":            payloadString(req.Payload, "vpcId"),
		"cidrBlock":        payloadStringDefault(req.Payload, "10.0.1.0/24", "cidrBlock"),
		"availabilityZone": payloadStringDefault(req.Payload, "us-east-1a", "availabilityZone"),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeSubnet, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Subnet created.", Resource: res}, nil
}

func handleDeleteSubnet(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeSubnet,
		"Subnet not found.", "Subnet deleted.", "subnetId", "name")
}

func handleCreateSecurityGroup(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	state := datatypes.JSONMap{
		"groupId":       newResourceID("sg-"),
		"groupName":     payloadStringDefault(req.Payload, "lab-sg", "groupName", "name"),
		"description":   payloadString(req.Payload, "description"),
		"vpcId":         payloadString(req.Payload, "vpcId"),
		"inboundRules":  rulesOrEmpty(req.Payload["inboundRules"]),
		"outboundRules": rulesOrEmpty(req.Payload["outboundRules"]),
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeSecurityGroup, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Security group created.", Resource: res}, nil
}

func handleDeleteSecurityGroup(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeSecurityGroup,
		"Security group not found.", "Security group deleted.", "groupId", "groupName", "name")
}

func handleUpdateSecurityGroupRules(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	sg, err := s.locateResource(ctx, req, domain.ResourceTypeSecurityGroup, "groupId", "groupName")
	if err != nil {
		return nil, err
	}
	if sg == nil {
		return failResult("Security group not found."), nil
	}

	if rules, ok := req.Payload["inboundRules"]; ok {
		sg.State["inboundRules"] = rulesOrEmpty(rules)
	}
	if rules, ok := req.Payload["outboundRules"]; ok {
		sg.State["outboundRules"] = rulesOrEmpty(rules)
	}

	if err := s.repo.UpdateResourceState(ctx, sg.ID, sg.State); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Security group rules updated.", Resource: sg}, nil
}

// --- EBS ---

func handleCreateVolume(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	size := payloadNumber(req.Payload, "size", "sizeGiB")
	if size == 0 {
		size = 8
	}
	state := datatypes.JSONMap{
		"volumeId":         newResourceID("vol-"),
		"size":             size,
		"volumeType":       payloadStringDefault(req.Payload, "gp3", "volumeType"),
		"availabilityZone": payloadStringDefault(req.Payload, "us-east-1a", "availabilityZone"),
		"state":            "available",
	}
	res, err := s.createResource(ctx, req, domain.ResourceTypeEBSVolume, state)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Volume created.", Resource: res}, nil
}

func handleDeleteVolume(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	return s.deleteResourceAction(ctx, req, domain.ResourceTypeEBSVolume,
		"Volume not found.", "Volume deleted.", "volumeId", "name")
}

func handleAttachVolume(ctx context.Context, s *SimulationService, req ActionRequest) (*ActionResult, error) {
	vol, err := s.locateResource(ctx, req, domain.ResourceTypeEBSVolume, "volumeId")
	if err != nil {
		return nil, err
	}
	if vol == nil {
		return failResult("Volume not found."), nil
	}

	vol.State["attachment"] = map[string]interface{}{
		"instanceId": payloadString(req.Payload, "instanceId"),
		"device":     payloadStringDefault(req.Payload, "/dev/xvdf", "device"),
		"attachTime": time.Now().UTC().Format(time.RFC3339),
	}
	vol.State["state"] = "in-use"

	if err := s.repo.UpdateResourceState(ctx, vol.ID, vol.State); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Message: "Volume attached.", Resource: vol}, nil
}

// --- helpers ---

// createResource insere o recurso e regista o histórico do formulário.
// A escrita do histórico é best-effort: uma falha ali não falha a ação.
func (s *SimulationService) createResource(ctx context.Context, req ActionRequest, resourceType string, state datatypes.JSONMap) (*domain.SimulatedResource, error) {
	res := &domain.SimulatedResource{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		LabID:        labScope(req.LabID),
		ResourceType: resourceType,
		State:        state,
		Status:       domain.ResourceStatusActive,
	}
	if err := s.repo.CreateResource(ctx, res); err != nil {
		return nil, fmt.Errorf("falha ao criar recurso %s: %w", resourceType, err)
	}

	history := &domain.ResourceHistory{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		LabID:        labScope(req.LabID),
		ResourceType: resourceType,
		ResourceID:   &res.ID,
		FormData:     datatypes.JSONMap(req.Payload),
		Status:       domain.HistoryStatusActive,
	}
	if err := s.repo.AddResourceHistory(ctx, history); err != nil {
		log.Printf("AVISO [Dispatcher]: Falha ao gravar histórico do recurso %s: %v", res.ID, err)
	}
	return res, nil
}

// locateResource resolve o alvo de uma mutação: primeiro pelo
// resourceId do payload, depois por cada chave de estado cujo valor
// venha no payload (fallback legacy por nome/id embebido).
func (s *SimulationService) locateResource(ctx context.Context, req ActionRequest, resourceType string, stateKeys ...string) (*domain.SimulatedResource, error) {
	if id := payloadString(req.Payload, "resourceId"); id != "" {
		res, err := s.repo.GetResourceByID(ctx, req.UserID, id)
		if res != nil || err != nil {
			return res, err
		}
	}

	filter := domain.ResourceFilter{
		UserID:       req.UserID,
		LabID:        req.LabID,
		ResourceType: resourceType,
	}
	for _, key := range stateKeys {
		value := payloadString(req.Payload, key)
		if value == "" {
			continue
		}
		res, err := s.repo.FindResourceByState(ctx, filter, key, value)
		if res != nil || err != nil {
			return res, err
		}
	}
	return nil, nil
}

func (s *SimulationService) deleteResourceAction(ctx context.Context, req ActionRequest, resourceType, notFoundMsg, okMsg string, stateKeys ...string) (*ActionResult, error) {
	res, err := s.locateResource(ctx, req, resourceType, stateKeys...)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return failResult(notFoundMsg), nil
	}
	if err := s.repo.DeleteResource(ctx, res.ID); err != nil {
		return nil, fmt.Errorf("falha ao apagar recurso %s: %w", res.ID, err)
	}
	return &ActionResult{Success: true, Message: okMsg}, nil
}

func labScope(labID string) *string {
	if labID == "" {
		return nil
	}
	return &labID
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newResourceID gera um id ao estilo AWS: prefixo + sufixo base36.
func newResourceID(prefix string) string {
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}
	return prefix + string(suffix)
}

func payloadString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func payloadStringDefault(payload map[string]interface{}, fallback string, keys ...string) string {
	if v := payloadString(payload, keys...); v != "" {
		return v
	}
	return fallback
}

func payloadNumber(payload map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}

func rulesOrEmpty(v interface{}) interface{} {
	if rules, ok := v.([]interface{}); ok {
		return rules
	}
	return []interface{}{}
}
