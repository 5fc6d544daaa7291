package dandinotes

import (
	"fmt"
	"strings"
)

// DCitePrefix is the namespace every relation and resource type value
// carries in persisted records.
const DCitePrefix = "dcite:"

// Relation is a closed citation-relation vocabulary (DataCite relationType).
type Relation string

const (
	RelationIsCitedBy           Relation = "dcite:IsCitedBy"
	RelationCites               Relation = "dcite:Cites"
	RelationIsSupplementTo      Relation = "dcite:IsSupplementTo"
	RelationIsSupplementedBy    Relation = "dcite:IsSupplementedBy"
	RelationIsContinuedBy       Relation = "dcite:IsContinuedBy"
	RelationContinues           Relation = "dcite:Continues"
	RelationDescribes           Relation = "dcite:Describes"
	RelationIsDescribedBy       Relation = "dcite:IsDescribedBy"
	RelationHasMetadata         Relation = "dcite:HasMetadata"
	RelationIsMetadataFor       Relation = "dcite:IsMetadataFor"
	RelationHasVersion          Relation = "dcite:HasVersion"
	RelationIsVersionOf         Relation = "dcite:IsVersionOf"
	RelationIsNewVersionOf      Relation = "dcite:IsNewVersionOf"
	RelationIsPreviousVersionOf Relation = "dcite:IsPreviousVersionOf"
	RelationIsPartOf            Relation = "dcite:IsPartOf"
	RelationHasPart             Relation = "dcite:HasPart"
	RelationIsReferencedBy      Relation = "dcite:IsReferencedBy"
	RelationReferences          Relation = "dcite:References"
	RelationIsDocumentedBy      Relation = "dcite:IsDocumentedBy"
	RelationDocuments           Relation = "dcite:Documents"
	RelationIsCompiledBy        Relation = "dcite:IsCompiledBy"
	RelationCompiles            Relation = "dcite:Compiles"
	RelationIsVariantFormOf     Relation = "dcite:IsVariantFormOf"
	RelationIsOriginalFormOf    Relation = "dcite:IsOriginalFormOf"
	RelationIsIdenticalTo       Relation = "dcite:IsIdenticalTo"
	RelationIsReviewedBy        Relation = "dcite:IsReviewedBy"
	RelationReviews             Relation = "dcite:Reviews"
	RelationIsDerivedFrom       Relation = "dcite:IsDerivedFrom"
	RelationIsSourceOf          Relation = "dcite:IsSourceOf"
	RelationRequires            Relation = "dcite:Requires"
	RelationIsRequiredBy        Relation = "dcite:IsRequiredBy"
	RelationObsoletes           Relation = "dcite:Obsoletes"
	RelationIsObsoletedBy       Relation = "dcite:IsObsoletedBy"
)

var relations = map[Relation]struct{}{
	RelationIsCitedBy: {}, RelationCites: {}, RelationIsSupplementTo: {},
	RelationIsSupplementedBy: {}, RelationIsContinuedBy: {}, RelationContinues: {},
	RelationDescribes: {}, RelationIsDescribedBy: {}, RelationHasMetadata: {},
	RelationIsMetadataFor: {}, RelationHasVersion: {}, RelationIsVersionOf: {},
	RelationIsNewVersionOf: {}, RelationIsPreviousVersionOf: {}, RelationIsPartOf: {},
	RelationHasPart: {}, RelationIsReferencedBy: {}, RelationReferences: {},
	RelationIsDocumentedBy: {}, RelationDocuments: {}, RelationIsCompiledBy: {},
	RelationCompiles: {}, RelationIsVariantFormOf: {}, RelationIsOriginalFormOf: {},
	RelationIsIdenticalTo: {}, RelationIsReviewedBy: {}, RelationReviews: {},
	RelationIsDerivedFrom: {}, RelationIsSourceOf: {}, RelationRequires: {},
	RelationIsRequiredBy: {}, RelationObsoletes: {}, RelationIsObsoletedBy: {},
}

// ParseRelation accepts a relation value with or without the dcite prefix
// and returns the canonical prefixed form.
func ParseRelation(s string) (Relation, error) {
	r := Relation(withDCitePrefix(s))
	if _, ok := relations[r]; !ok {
		return "", fmt.Errorf("unknown relation %q", s)
	}
	return r, nil
}

// ResourceType is a closed resource-kind vocabulary (DataCite resourceTypeGeneral).
type ResourceType string

const (
	TypeAudioVisual           ResourceType = "dcite:AudioVisual"
	TypeBook                  ResourceType = "dcite:Book"
	TypeBookChapter           ResourceType = "dcite:BookChapter"
	TypeCollection            ResourceType = "dcite:Collection"
	TypeComputationalNotebook ResourceType = "dcite:ComputationalNotebook"
	TypeConferencePaper       ResourceType = "dcite:ConferencePaper"
	TypeConferenceProceeding  ResourceType = "dcite:ConferenceProceeding"
	TypeDataPaper             ResourceType = "dcite:DataPaper"
	TypeDataset               ResourceType = "dcite:Dataset"
	TypeDissertation          ResourceType = "dcite:Dissertation"
	TypeEvent                 ResourceType = "dcite:Event"
	TypeImage                 ResourceType = "dcite:Image"
	TypeInstrument            ResourceType = "dcite:Instrument"
	TypeInteractiveResource   ResourceType = "dcite:InteractiveResource"
	TypeJournal               ResourceType = "dcite:Journal"
	TypeJournalArticle        ResourceType = "dcite:JournalArticle"
	TypeModel                 ResourceType = "dcite:Model"
	TypeOutputManagementPlan  ResourceType = "dcite:OutputManagementPlan"
	TypePeerReview            ResourceType = "dcite:PeerReview"
	TypePhysicalObject        ResourceType = "dcite:PhysicalObject"
	TypePreprint              ResourceType = "dcite:Preprint"
	TypeReport                ResourceType = "dcite:Report"
	TypeService               ResourceType = "dcite:Service"
	TypeSoftware              ResourceType = "dcite:Software"
	TypeSound                 ResourceType = "dcite:Sound"
	TypeStandard              ResourceType = "dcite:Standard"
	TypeStudyRegistration     ResourceType = "dcite:StudyRegistration"
	TypeText                  ResourceType = "dcite:Text"
	TypeWorkflow              ResourceType = "dcite:Workflow"
	TypeOther                 ResourceType = "dcite:Other"
)

var resourceTypes = map[ResourceType]struct{}{
	TypeAudioVisual: {}, TypeBook: {}, TypeBookChapter: {}, TypeCollection: {},
	TypeComputationalNotebook: {}, TypeConferencePaper: {}, TypeConferenceProceeding: {},
	TypeDataPaper: {}, TypeDataset: {}, TypeDissertation: {}, TypeEvent: {},
	TypeImage: {}, TypeInstrument: {}, TypeInteractiveResource: {}, TypeJournal: {},
	TypeJournalArticle: {}, TypeModel: {}, TypeOutputManagementPlan: {},
	TypePeerReview: {}, TypePhysicalObject: {}, TypePreprint: {}, TypeReport: {},
	TypeService: {}, TypeSoftware: {}, TypeSound: {}, TypeStandard: {},
	TypeStudyRegistration: {}, TypeText: {}, TypeWorkflow: {}, TypeOther: {},
}

// ParseResourceType accepts a resource type with or without the dcite
// prefix and returns the canonical prefixed form.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(withDCitePrefix(s))
	if _, ok := resourceTypes[t]; !ok {
		return "", fmt.Errorf("unknown resource type %q", s)
	}
	return t, nil
}

func withDCitePrefix(s string) string {
	if strings.HasPrefix(s, DCitePrefix) {
		return s
	}
	return DCitePrefix + s
}
